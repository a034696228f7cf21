package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPromoCode_IsValid(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	until := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		code PromoCode
		want bool
	}{
		{
			name: "active within window",
			code: PromoCode{IsActive: true, ValidFrom: now.Add(-time.Hour), ValidUntil: &until},
			want: true,
		},
		{
			name: "inactive",
			code: PromoCode{IsActive: false, ValidFrom: now.Add(-time.Hour)},
			want: false,
		},
		{
			name: "usage cap reached",
			code: PromoCode{IsActive: true, MaxUses: 3, TimesUsed: 3, ValidFrom: now.Add(-time.Hour)},
			want: false,
		},
		{
			name: "usage cap not yet reached",
			code: PromoCode{IsActive: true, MaxUses: 3, TimesUsed: 2, ValidFrom: now.Add(-time.Hour)},
			want: true,
		},
		{
			name: "unlimited uses ignores counter",
			code: PromoCode{IsActive: true, MaxUses: 0, TimesUsed: 100000, ValidFrom: now.Add(-time.Hour)},
			want: true,
		},
		{
			name: "not yet valid",
			code: PromoCode{IsActive: true, ValidFrom: now.Add(time.Minute)},
			want: false,
		},
		{
			name: "expired",
			code: PromoCode{IsActive: true, ValidFrom: now.Add(-48 * time.Hour), ValidUntil: &past},
			want: false,
		},
		{
			name: "open ended window",
			code: PromoCode{IsActive: true, ValidFrom: now.Add(-48 * time.Hour)},
			want: true,
		},
		{
			name: "boundaries are inclusive",
			code: PromoCode{IsActive: true, ValidFrom: now, ValidUntil: &now},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.IsValid(now))
			// повторный вызов не меняет результат
			assert.Equal(t, tt.want, tt.code.IsValid(now))
		})
	}
}

func TestPromoCode_GrantsTrial(t *testing.T) {
	premium := TierPremium
	assert.True(t, (&PromoCode{GrantsTier: &premium, GrantsFreeDays: 7}).GrantsTrial())
	assert.False(t, (&PromoCode{GrantsTier: &premium}).GrantsTrial())
	assert.False(t, (&PromoCode{GrantsFreeDays: 7}).GrantsTrial())
}

func TestDummyPromoCode_ToPromoCode(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	code := DummyPromoCode{
		Code:           "WELCOME",
		Description:    "welcome trial",
		GrantsFreeDays: 14,
		GrantsTier:     "member",
	}.ToPromoCode(now)

	assert.Equal(t, now, code.ValidFrom)
	assert.True(t, code.IsActive)
	if assert.NotNil(t, code.GrantsTier) {
		assert.Equal(t, TierMember, *code.GrantsTier)
	}
	assert.Nil(t, code.ValidUntil)
}
