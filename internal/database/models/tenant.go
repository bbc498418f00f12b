package models

// Subscription tiers and their default seat limits.
const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

var tierMaxUsers = map[string]int{
	TierFree:       5,
	TierPro:        25,
	TierEnterprise: 250,
}

// MaxUsersForTier returns the seat limit of a tier, falling back to the free tier.
func MaxUsersForTier(tier string) int {
	if n, ok := tierMaxUsers[tier]; ok {
		return n
	}
	return tierMaxUsers[TierFree]
}

// Tenant is an isolated organization. Code is assigned once at registration.
type Tenant struct {
	Base
	Name             string `gorm:"not null" json:"name"`
	Code             string `gorm:"uniqueIndex;not null;size:16" json:"code"`
	SubscriptionTier string `gorm:"not null;default:'free'" json:"subscription_tier"`
	MaxUsers         int    `gorm:"not null;default:5" json:"max_users"`

	// Relationships
	Users []User `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
	Items []Item `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Tenant) TableName() string {
	return "tenants"
}
