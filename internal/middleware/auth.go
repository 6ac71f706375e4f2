package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"noticeboard/internal/constants"
	"noticeboard/internal/model"
	"noticeboard/internal/repository"
)

const (
	actorKey    = "actor"
	tokenIssuer = "noticeboard"
)

// ProfileLookup 认证时加载身份资料
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
}

// Claims JWT 载荷，sub 为身份 ID
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken 为身份签发 HS256 令牌
func GenerateToken(secret, profileID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   profileID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, nil
}

func parseToken(secret, header string) (string, error) {
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		raw = header
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Auth 认证中间件：校验令牌并加载身份，写入上下文
func Auth(secret string, profiles ProfileLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"code": 401, "msg": constants.ErrUnauthorized})
			return
		}

		profileID, err := parseToken(secret, header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"code": 401, "msg": constants.ErrInvalidToken})
			return
		}

		profile, err := profiles.GetByID(c.Request.Context(), profileID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusOK, gin.H{"code": 401, "msg": constants.ErrInvalidToken})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
			return
		}
		if profile.Status == model.ProfileSuspended {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"code": 403, "msg": constants.ErrAccountDisabled})
			return
		}

		c.Set(actorKey, model.Actor{ID: profile.ID, Role: profile.Role})
		c.Next()
	}
}

// AdminOnly 管理员权限中间件，须在 Auth 之后使用
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"code": 401, "msg": constants.ErrUnauthorized})
			return
		}
		if !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"code": 403, "msg": constants.ErrInsufficientPermission})
			return
		}
		c.Next()
	}
}

// ActorFrom 获取当前请求的身份
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

// SetActor 写入当前请求的身份
func SetActor(c *gin.Context, actor model.Actor) {
	c.Set(actorKey, actor)
}
