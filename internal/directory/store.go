package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Organization struct {
	ID          string
	Name        string
	Description string
	Address     string
	Email       string
	Phone       string
	IsActive    bool
}

type Policy struct {
	ID               string
	OrganizationID   string
	OrganizationName string
	Name             string
	Description      string
	DocumentName     string
	FilePath         string
	MaxLeaveDays     int
	CarryForwardDays int
	IsActive         bool
}

// ApprovedLeave is a count of accepted leave days grouped by organization
// and leave type.
type ApprovedLeave struct {
	OrganizationID   string
	OrganizationName string
	LeaveType        string
	Days             int
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetOrganizationByName looks up an organization by case-insensitive
// substring match. Returns nil when nothing matches; ties resolve to the
// most recently created row.
func (s *Store) GetOrganizationByName(ctx context.Context, name string) (*Organization, error) {
	var org Organization
	err := s.db.QueryRowContext(ctx, `
		SELECT id,
			name,
			COALESCE(description, ''),
			COALESCE(address, ''),
			COALESCE(email, ''),
			COALESCE(phone, ''),
			is_active
		FROM orgdesk.organizations
		WHERE LOWER(name) LIKE '%' || LOWER($1) || '%'
		ORDER BY created DESC
		LIMIT 1
	`, name).Scan(&org.ID, &org.Name, &org.Description, &org.Address, &org.Email, &org.Phone, &org.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get organization by name: %w", err)
	}
	return &org, nil
}

func (s *Store) ListActiveOrganizations(ctx context.Context) ([]Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, ''), is_active
		FROM orgdesk.organizations
		WHERE is_active = TRUE
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.IsActive); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return orgs, nil
}

func (s *Store) ListPoliciesForOrganization(ctx context.Context, organizationID string) ([]Policy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id,
			organization_id,
			name,
			COALESCE(description, ''),
			COALESCE(document_name, ''),
			COALESCE(file_path, ''),
			COALESCE(max_leave_days, 0),
			COALESCE(carry_forward_days, 0),
			is_active
		FROM orgdesk.policies
		WHERE organization_id = $1 AND is_active = TRUE
		ORDER BY name
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var policies []Policy
	for rows.Next() {
		var p Policy
		if err := rows.Scan(
			&p.ID,
			&p.OrganizationID,
			&p.Name,
			&p.Description,
			&p.DocumentName,
			&p.FilePath,
			&p.MaxLeaveDays,
			&p.CarryForwardDays,
			&p.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policies: %w", err)
	}
	return policies, nil
}

// GetPolicyByName looks up a policy by case-insensitive substring match,
// carrying the owning organization's name. Returns nil when nothing matches.
func (s *Store) GetPolicyByName(ctx context.Context, name string) (*Policy, error) {
	var p Policy
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id,
			p.organization_id,
			COALESCE(o.name, ''),
			p.name,
			COALESCE(p.description, ''),
			COALESCE(p.document_name, ''),
			COALESCE(p.file_path, ''),
			COALESCE(p.max_leave_days, 0),
			COALESCE(p.carry_forward_days, 0),
			p.is_active
		FROM orgdesk.policies p
		LEFT JOIN orgdesk.organizations o ON o.id = p.organization_id
		WHERE LOWER(p.name) LIKE '%' || LOWER($1) || '%'
		ORDER BY p.created DESC
		LIMIT 1
	`, name).Scan(
		&p.ID,
		&p.OrganizationID,
		&p.OrganizationName,
		&p.Name,
		&p.Description,
		&p.DocumentName,
		&p.FilePath,
		&p.MaxLeaveDays,
		&p.CarryForwardDays,
		&p.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get policy by name: %w", err)
	}
	return &p, nil
}

// GetPolicyByID fetches a single policy row. Returns nil when absent.
func (s *Store) GetPolicyByID(ctx context.Context, policyID string) (*Policy, error) {
	var p Policy
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id,
			p.organization_id,
			COALESCE(o.name, ''),
			p.name,
			COALESCE(p.description, ''),
			COALESCE(p.document_name, ''),
			COALESCE(p.file_path, ''),
			COALESCE(p.max_leave_days, 0),
			COALESCE(p.carry_forward_days, 0),
			p.is_active
		FROM orgdesk.policies p
		LEFT JOIN orgdesk.organizations o ON o.id = p.organization_id
		WHERE p.id = $1
	`, policyID).Scan(
		&p.ID,
		&p.OrganizationID,
		&p.OrganizationName,
		&p.Name,
		&p.Description,
		&p.DocumentName,
		&p.FilePath,
		&p.MaxLeaveDays,
		&p.CarryForwardDays,
		&p.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get policy by id: %w", err)
	}
	return &p, nil
}

// ListLeavePolicies returns active policies for an organization, optionally
// narrowed by a case-insensitive policy name match.
func (s *Store) ListLeavePolicies(ctx context.Context, organizationID, policyName string) ([]Policy, error) {
	query := `
		SELECT id,
			organization_id,
			name,
			COALESCE(max_leave_days, 0),
			COALESCE(carry_forward_days, 0)
		FROM orgdesk.policies
		WHERE organization_id = $1 AND is_active = TRUE
	`
	args := []interface{}{organizationID}
	if policyName != "" {
		query += ` AND LOWER(name) LIKE '%' || LOWER($2) || '%'`
		args = append(args, policyName)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leave policies: %w", err)
	}
	defer rows.Close()

	var policies []Policy
	for rows.Next() {
		var p Policy
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.MaxLeaveDays, &p.CarryForwardDays); err != nil {
			return nil, fmt.Errorf("scan leave policy: %w", err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leave policies: %w", err)
	}
	return policies, nil
}

// GetOrganizationIDsForUser returns the ids of organizations the user is an
// active member of.
func (s *Store) GetOrganizationIDsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT organization_id
		FROM orgdesk.user_organizations
		WHERE user_id = $1 AND is_active = TRUE
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("get membership ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan membership id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate membership ids: %w", err)
	}
	return ids, nil
}

// ListOrganizationsForUser returns full organization details for the user's
// active memberships.
func (s *Store) ListOrganizationsForUser(ctx context.Context, userID string) ([]Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id,
			o.name,
			COALESCE(o.description, ''),
			COALESCE(o.address, ''),
			COALESCE(o.email, ''),
			COALESCE(o.phone, ''),
			o.is_active
		FROM orgdesk.organizations o
		JOIN orgdesk.user_organizations m ON m.organization_id = o.id
		WHERE m.user_id = $1 AND m.is_active = TRUE
		ORDER BY o.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list member organizations: %w", err)
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.Address, &org.Email, &org.Phone, &org.IsActive); err != nil {
			return nil, fmt.Errorf("scan member organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member organizations: %w", err)
	}
	return orgs, nil
}

// GetApprovedLeavesSummary counts accepted leave days for the user grouped
// by organization and leave type, plus the overall total.
func (s *Store) GetApprovedLeavesSummary(ctx context.Context, userID string) ([]ApprovedLeave, int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.organization_id,
			COALESCE(o.name, ''),
			l.leave_type,
			COUNT(*)
		FROM orgdesk.leave_requests l
		LEFT JOIN orgdesk.organizations o ON o.id = l.organization_id
		WHERE l.user_id = $1 AND l.is_accepted = TRUE
		GROUP BY l.organization_id, o.name, l.leave_type
		ORDER BY o.name, l.leave_type
	`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("approved leaves summary: %w", err)
	}
	defer rows.Close()

	var leaves []ApprovedLeave
	total := 0
	for rows.Next() {
		var leave ApprovedLeave
		if err := rows.Scan(&leave.OrganizationID, &leave.OrganizationName, &leave.LeaveType, &leave.Days); err != nil {
			return nil, 0, fmt.Errorf("scan approved leave: %w", err)
		}
		total += leave.Days
		leaves = append(leaves, leave)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate approved leaves: %w", err)
	}
	return leaves, total, nil
}
