package indexes_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dalemusser/mohallahub/internal/app/system/indexes"
	"github.com/dalemusser/mohallahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(ctx context.Context, t *testing.T, c *mongo.Collection) map[string]bool {
	t.Helper()

	cur, err := c.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"users":         {"uniq_users_phone", "idx_users_nbhd_status_flags"},
		"neighborhoods": {"uniq_nbhd_postal", "idx_nbhd_slug", "idx_nbhd_geohash"},
		"posts":         {"idx_posts_nbhd_status_created"},
		"audit_events":  {"idx_audit_ts", "idx_audit_user_ts", "idx_audit_nbhd_ts", "idx_audit_cat_type_ts"},
	}

	for coll, want := range expected {
		names := indexNames(ctx, t, db.Collection(coll))
		for _, name := range want {
			if !names[name] {
				t.Errorf("expected index %q to exist on %s collection", name, coll)
			}
		}
	}
}

func TestEnsureAll_UniquePhone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	users := db.Collection("users")
	if _, err := users.InsertOne(ctx, bson.M{"phone": "9876543210"}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := users.InsertOne(ctx, bson.M{"phone": "9876543210"}); err == nil {
		t.Error("expected duplicate phone insert to fail")
	}
}

func TestEnsureAll_DuplicatePostalCodesReported(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	nbs := db.Collection("neighborhoods")
	for _, name := range []string{"Bengaluru - 560034", "Bangalore - 560034"} {
		if _, err := nbs.InsertOne(ctx, bson.M{"name": name, "postal_code": "560034"}); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	err := indexes.EnsureAll(ctx, db)
	if err == nil {
		t.Fatal("expected EnsureAll to fail on duplicate postal codes")
	}
	msg := err.Error()
	if !strings.Contains(msg, "cannot create unique index") || !strings.Contains(msg, "neighborhoods.postal_code") {
		t.Errorf("expected duplicate hint for postal_code, got %q", msg)
	}
}

func TestEnsureAll_UniquePostalCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	nbs := db.Collection("neighborhoods")
	if _, err := nbs.InsertOne(ctx, bson.M{"name": "Bengaluru - 560034", "postal_code": "560034"}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := nbs.InsertOne(ctx, bson.M{"name": "Bangalore - 560034", "postal_code": "560034"}); err == nil {
		t.Error("expected second neighborhood for the same postal code to fail")
	}
}
