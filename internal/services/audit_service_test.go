package services

import (
	"encoding/json"
	"testing"

	"limify/internal/models"
	"limify/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)
	user := testutil.CreateTestUser(t, db)

	svc.Log(user.ID, AuditPublish, "budget", "b1", "10.0.0.1", map[string]interface{}{"version": 2})
	svc.Log(user.ID, AuditRemoveMember, "team_member", "m1", "10.0.0.1", nil)

	var entries []models.AuditLog
	testutil.AssertNoError(t, db.Where("user_id = ?", user.ID).Order("action").Find(&entries).Error)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	publish := entries[0]
	if publish.Action != AuditPublish || publish.ResourceID != "b1" || publish.IPAddress != "10.0.0.1" {
		t.Errorf("unexpected entry %+v", publish)
	}
	var changes map[string]interface{}
	testutil.AssertNoError(t, json.Unmarshal(publish.Changes, &changes))
	if changes["version"].(float64) != 2 {
		t.Errorf("expected version 2 in changes, got %v", changes)
	}

	if len(entries[1].Changes) != 0 {
		t.Errorf("expected no changes recorded, got %s", entries[1].Changes)
	}
}
