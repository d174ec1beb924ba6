package chat

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"orgdesk/internal/directory"
	"orgdesk/internal/rag"
)

func newDirectoryBuilder(t *testing.T, embedder *stubEmbedder) (*RegistryBuilder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	builder := NewRegistryBuilder()
	RegisterDirectoryTools(builder, directory.NewStore(db), rag.NewSearcher(rag.NewStore(db), embedder, 5))
	return builder, mock
}

func TestGetOrganizationByName(t *testing.T) {
	builder, mock := newDirectoryBuilder(t, &stubEmbedder{})
	registry := builder.Resolve("")

	rows := sqlmock.NewRows([]string{"id", "name", "description", "address", "email", "phone", "is_active"}).
		AddRow("org-1", "Acme Corp", "widgets", "1 Main St", "hello@acme.example", "555-0100", true)
	mock.ExpectQuery("SELECT id").WillReturnRows(rows)

	out := callTool(t, registry, "get_organization_by_name", map[string]interface{}{"organization_name": "acme"})
	if out["name"] != "Acme Corp" || out["is_active"] != true {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestGetOrganizationByNameNotFound(t *testing.T) {
	builder, mock := newDirectoryBuilder(t, &stubEmbedder{})
	registry := builder.Resolve("")

	mock.ExpectQuery("SELECT id").WillReturnError(sql.ErrNoRows)

	out := callTool(t, registry, "get_organization_by_name", map[string]interface{}{"organization_name": "ghost"})
	if out["detail"] != "Organization not found" || out["name"] != "ghost" {
		t.Fatalf("unexpected sentinel: %v", out)
	}
}

func TestGetLeaveAllowanceNoPolicies(t *testing.T) {
	builder, mock := newDirectoryBuilder(t, &stubEmbedder{})
	registry := builder.Resolve("")

	orgRows := sqlmock.NewRows([]string{"id", "name", "description", "address", "email", "phone", "is_active"}).
		AddRow("org-1", "Acme Corp", "", "", "", "", true)
	mock.ExpectQuery("SELECT id").WillReturnRows(orgRows)
	mock.ExpectQuery("SELECT id").WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "name", "max_leave_days", "carry_forward_days"}))

	out := callTool(t, registry, "get_leave_allowance", map[string]interface{}{"organization_name": "acme"})
	if out["detail"] != "No policies found" || out["organization"] != "Acme Corp" {
		t.Fatalf("unexpected sentinel: %v", out)
	}
}

func TestSearchPolicyEmbeddings(t *testing.T) {
	builder, mock := newDirectoryBuilder(t, &stubEmbedder{vectors: [][]float32{{0.1, 0.2}}})
	registry := builder.Resolve("")

	rows := sqlmock.NewRows([]string{
		"id", "policy_id", "organization_id", "policy_name",
		"description", "document_name", "file_path", "chunk_index", "chunk_text",
	}).AddRow("chunk-1", "pol-1", "org-1", "Sick Leave", "", "sick.pdf", "/docs/sick.pdf", 0, "two days require a certificate")
	mock.ExpectQuery("SELECT id").WillReturnRows(rows)

	out := callTool(t, registry, "search_policy_embeddings", map[string]interface{}{"query": "sick leave"})
	if out["total"] != 1 {
		t.Fatalf("unexpected output: %v", out)
	}
	matches := out["matches"].([]map[string]interface{})
	if matches[0]["policy_name"] != "Sick Leave" || matches[0]["score"] != nil {
		t.Fatalf("unexpected match: %v", matches[0])
	}
}

func TestSearchMyOrganizationPoliciesWithoutMembership(t *testing.T) {
	builder, mock := newDirectoryBuilder(t, &stubEmbedder{vectors: [][]float32{{0.1}}})
	registry := builder.Resolve("user-1")

	mock.ExpectQuery("SELECT organization_id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"organization_id"}))

	out := callTool(t, registry, "search_my_organization_policies", map[string]interface{}{"query": "pto"})
	if out["detail"] != "You are not a member of any organization. No policies to search." {
		t.Fatalf("unexpected sentinel: %v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetMyPendingLeaves(t *testing.T) {
	builder, mock := newDirectoryBuilder(t, &stubEmbedder{vectors: [][]float32{{0.1, 0.2}}})
	registry := builder.Resolve("user-1")

	mock.ExpectQuery("SELECT organization_id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"organization_id"}).AddRow(orgID))
	mock.ExpectQuery("SELECT l.organization_id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"organization_id", "name", "leave_type", "count"}).
			AddRow(orgID, "Acme Corp", "SICK_LEAVE", 4))
	mock.ExpectQuery("SELECT id").WillReturnRows(sqlmock.NewRows([]string{
		"id", "policy_id", "organization_id", "policy_name",
		"description", "document_name", "file_path", "chunk_index", "chunk_text",
	}).AddRow("chunk-1", "pol-1", orgID, "Sick Leave", "", "", "", 0, "18 days per year"))

	out := callTool(t, registry, "get_my_pending_leaves", nil)
	if out["total_approved_days"] != 4 {
		t.Fatalf("unexpected total: %v", out)
	}
	leaves := out["approved_leaves"].([]map[string]interface{})
	if leaves[0]["leave_type"] != "SICK_LEAVE" || leaves[0]["days"] != 4 {
		t.Fatalf("unexpected leaves: %v", leaves)
	}
	excerpts := out["policy_excerpts"].([]map[string]interface{})
	if excerpts[0]["policy_name"] != "Sick Leave" {
		t.Fatalf("unexpected excerpts: %v", excerpts)
	}
}

const orgID = "5a9e6f3c-1f2d-4c3b-9a8e-0d1c2b3a4f5e"
