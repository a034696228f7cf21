package models

// ProfileFilter параметры поиска профилей в административном API.
type ProfileFilter struct {
	Tier     *Tier
	IsMember *bool
	Level    *int
	Search   string // подстрока username или email
	Limit    int
	Offset   int
}

// PlanFilter параметры поиска тарифных планов.
type PlanFilter struct {
	Tier     *Tier
	IsActive *bool
	Search   string // подстрока name или description
}

// PromoCodeFilter параметры поиска промокодов.
type PromoCodeFilter struct {
	IsActive   *bool
	GrantsTier *Tier
	Search     string // подстрока code или description
}
