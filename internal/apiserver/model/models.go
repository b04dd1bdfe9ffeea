package model

// All returns one zero value of every persisted model, in migration order
func All() []any {
	return []any{
		&User{},
		&CoupleProfile{},
		&PlannerProfile{},
		&PlannerCouple{},
		&VendorProfile{},
		&BudgetProposal{},
		&Payment{},
		&Task{},
		&Document{},
		&Contract{},
		&Visit{},
		&Review{},
		&TimelineEvent{},
	}
}
