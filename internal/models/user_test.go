package models

import (
	"testing"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"administrator role", RoleAdministrator, true},
		{"operator role", RoleOperator, true},
		{"consultant role", RoleConsultant, true},
		{"visitor role", RoleVisitor, true},
		{"invalid role", "invalid", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestUser_HasPermission(t *testing.T) {
	admin := &User{Role: RoleAdministrator}
	operator := &User{Role: RoleOperator}
	consultant := &User{Role: RoleConsultant}
	visitor := &User{Role: RoleVisitor}

	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		// Administrator - full access
		{"administrator can manage users", admin, "manage_users", true},
		{"administrator can create vehicle", admin, "create_vehicle", true},
		{"administrator can checkout vehicle", admin, "checkout_vehicle", true},

		// Operator - runs the day-to-day ledger operations
		{"operator can checkout vehicle", operator, "checkout_vehicle", true},
		{"operator can checkin vehicle", operator, "checkin_vehicle", true},
		{"operator can cancel movement", operator, "cancel_movement", true},
		{"operator can record fuel", operator, "record_fuel", true},
		{"operator can schedule maintenance", operator, "schedule_maintenance", true},
		{"operator cannot create vehicle", operator, "create_vehicle", false},
		{"operator cannot manage users", operator, "manage_users", false},
		{"operator cannot view reports", operator, "view_reports", false},

		// Consultant - read-only plus reports
		{"consultant can view movements", consultant, "view_movements", true},
		{"consultant can view reports", consultant, "view_reports", true},
		{"consultant cannot checkout vehicle", consultant, "checkout_vehicle", false},
		{"consultant cannot record fuel", consultant, "record_fuel", false},

		// Visitor - basic views only
		{"visitor can view vehicles", visitor, "view_vehicles", true},
		{"visitor can view movements", visitor, "view_movements", true},
		{"visitor cannot view fuel", visitor, "view_fuel", false},
		{"visitor cannot view reports", visitor, "view_reports", false},
		{"visitor cannot checkout vehicle", visitor, "checkout_vehicle", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.user.HasPermission(tt.action)
			if result != tt.expected {
				t.Errorf("User with role %s HasPermission(%s) = %v, want %v",
					tt.user.Role, tt.action, result, tt.expected)
			}
		})
	}
}
