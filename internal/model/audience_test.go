package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAudienceRoleMappingIsBijective(t *testing.T) {
	for _, a := range RoleAudiences() {
		r, ok := a.Role()
		assert.True(t, ok, a)
		back, ok := AudienceForRole(r)
		assert.True(t, ok, r)
		assert.Equal(t, a, back)
	}
	assert.Len(t, audienceToRole, len(roleToAudience))

	_, ok := AudienceAll.Role()
	assert.False(t, ok)
	_, ok = AudienceSpecificUser.Role()
	assert.False(t, ok)
}

func TestParseAudience(t *testing.T) {
	cases := map[string]Audience{
		"students":       AudienceStudents,
		" Students ":     AudienceStudents,
		"role:affiliate": AudienceAffiliates,
		"admins":         AudienceAdmins,
		"all":            AudienceAll,
		"specific_user":  AudienceSpecificUser,
	}
	for raw, want := range cases {
		got, ok := ParseAudience(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseAudience("teachers")
	assert.False(t, ok)
	assert.False(t, Audience("teachers").Known())
	assert.Equal(t, "students", AudienceStudents.Label())
}

func TestTagListRoundTrip(t *testing.T) {
	v, err := TagList{" ops ", "maintenance", "ops", "", "a,b"}.Value()
	assert.NoError(t, err)
	assert.Equal(t, ",ops,maintenance,a b,", v)

	var tags TagList
	assert.NoError(t, tags.Scan([]byte(",ops,maintenance,")))
	assert.Equal(t, TagList{"ops", "maintenance"}, tags)

	assert.NoError(t, tags.Scan(nil))
	assert.Empty(t, tags)

	v, err = TagList(nil).Value()
	assert.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestNewPageInfo(t *testing.T) {
	assert.Equal(t, PageInfo{Page: 1, PageSize: 10, TotalPages: 3, HasNext: true}, NewPageInfo(1, 10, 21))
	assert.Equal(t, PageInfo{Page: 3, PageSize: 10, TotalPages: 3, HasNext: false}, NewPageInfo(3, 10, 21))
	assert.Equal(t, PageInfo{Page: 1, PageSize: 10}, NewPageInfo(1, 10, 0))
}
