package model

import "strings"

// Role 身份角色（存储值为单数）
type Role string

const (
	RoleStudent   Role = "student"
	RoleAffiliate Role = "affiliate"
	RoleAdmin     Role = "admin"
)

// Audience 公告目标受众
type Audience string

const (
	AudienceAll          Audience = "all"
	AudienceStudents     Audience = "role:student"
	AudienceAffiliates   Audience = "role:affiliate"
	AudienceAdmins       Audience = "role:admin"
	AudienceSpecificUser Audience = "specific-user"
)

// 受众与角色的双向映射，两张表必须互为逆映射
var (
	audienceToRole = map[Audience]Role{
		AudienceStudents:   RoleStudent,
		AudienceAffiliates: RoleAffiliate,
		AudienceAdmins:     RoleAdmin,
	}
	roleToAudience = map[Role]Audience{
		RoleStudent:   AudienceStudents,
		RoleAffiliate: AudienceAffiliates,
		RoleAdmin:     AudienceAdmins,
	}
	// 界面使用的复数标签
	audienceLabels = map[Audience]string{
		AudienceAll:          "all",
		AudienceStudents:     "students",
		AudienceAffiliates:   "affiliates",
		AudienceAdmins:       "admins",
		AudienceSpecificUser: "specific",
	}
	labelToAudience = map[string]Audience{
		"all":            AudienceAll,
		"students":       AudienceStudents,
		"affiliates":     AudienceAffiliates,
		"admins":         AudienceAdmins,
		"specific":       AudienceSpecificUser,
		"specific-user":  AudienceSpecificUser,
		"specific_user":  AudienceSpecificUser,
		"role:student":   AudienceStudents,
		"role:affiliate": AudienceAffiliates,
		"role:admin":     AudienceAdmins,
	}
)

// ParseAudience 将界面标签或规范值解析为规范受众，未知值返回 false
func ParseAudience(raw string) (Audience, bool) {
	a, ok := labelToAudience[strings.ToLower(strings.TrimSpace(raw))]
	return a, ok
}

// Known 是否为已知受众
func (a Audience) Known() bool {
	_, ok := audienceLabels[a]
	return ok
}

// Role 角色受众对应的存储角色
func (a Audience) Role() (Role, bool) {
	r, ok := audienceToRole[a]
	return r, ok
}

// Label 界面标签
func (a Audience) Label() string {
	if l, ok := audienceLabels[a]; ok {
		return l
	}
	return string(a)
}

// AudienceForRole 角色对应的受众
func AudienceForRole(r Role) (Audience, bool) {
	a, ok := roleToAudience[r]
	return a, ok
}

// RoleAudiences 所有角色受众
func RoleAudiences() []Audience {
	return []Audience{AudienceStudents, AudienceAffiliates, AudienceAdmins}
}

// Valid 是否为已知角色
func (r Role) Valid() bool {
	_, ok := roleToAudience[r]
	return ok
}
