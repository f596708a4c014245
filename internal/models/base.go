package models

import "github.com/google/uuid"

func newID() string {
	return uuid.NewString()
}

// AllModels lists every persisted model in migration order
func AllModels() []interface{} {
	return []interface{}{
		&Role{},
		&Organization{},
		&User{},
		&Group{},
		&GroupMember{},
		&Folder{},
		&Report{},
		&ReportPermission{},
		&Comment{},
		&Dashboard{},
		&Visualization{},
		&DashboardPermission{},
	}
}
