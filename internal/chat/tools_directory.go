package chat

import (
	"context"
	"fmt"

	"orgdesk/internal/directory"
	"orgdesk/internal/rag"
	"orgdesk/pkg/llm"
)

const pendingLeavesQuery = "leave policy days allowance sick leave privilege leave PTO annual vacation"

func matchMap(m rag.Match) map[string]interface{} {
	return map[string]interface{}{
		"policy_id":       m.PolicyID,
		"organization_id": m.OrganizationID,
		"policy_name":     m.PolicyName,
		"description":     m.Description,
		"document_name":   m.DocumentName,
		"file_path":       m.FilePath,
		"chunk_index":     m.ChunkIndex,
		"text":            m.Text,
		"score":           nil,
	}
}

func matchMaps(matches []rag.Match) []map[string]interface{} {
	maps := make([]map[string]interface{}, 0, len(matches))
	for _, m := range matches {
		maps = append(maps, matchMap(m))
	}
	return maps
}

// RegisterDirectoryTools adds the organization and policy tools. The base set
// works for anyone; the gated set is bound to an authenticated user by the
// registry builder and never advertised without one.
func RegisterDirectoryTools(builder *RegistryBuilder, store *directory.Store, searcher *rag.Searcher) {
	builder.RegisterBase(llm.Tool{
		Name:        "get_organization_by_name",
		Description: "Returns organization details by searching for the name.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{
			"organization_name": {
				Description: "The name of the organization.",
				Type:        "str",
				Required:    true,
			},
		},
	}, func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		name := paramString(params, "organization_name", "")
		if name == "" {
			return nil, fmt.Errorf("organization_name is required")
		}
		org, err := store.GetOrganizationByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if org == nil {
			return map[string]interface{}{"detail": "Organization not found", "name": name}, nil
		}
		return map[string]interface{}{
			"id":          org.ID,
			"name":        org.Name,
			"description": org.Description,
			"address":     org.Address,
			"email":       org.Email,
			"phone":       org.Phone,
			"is_active":   org.IsActive,
		}, nil
	})

	builder.RegisterBase(llm.Tool{
		Name:                 "get_all_organizations",
		Description:          "Returns all active organizations.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{},
	}, func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		orgs, err := store.ListActiveOrganizations(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]map[string]interface{}, 0, len(orgs))
		for _, org := range orgs {
			items = append(items, map[string]interface{}{
				"id":          org.ID,
				"name":        org.Name,
				"description": org.Description,
				"is_active":   org.IsActive,
			})
		}
		return map[string]interface{}{"organizations": items, "total": len(items)}, nil
	})

	builder.RegisterBase(llm.Tool{
		Name:        "get_policies_for_organization",
		Description: "Returns all policies for a specific organization including document details.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{
			"organization_name": {
				Description: "The name of the organization.",
				Type:        "str",
				Required:    true,
			},
		},
	}, func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		name := paramString(params, "organization_name", "")
		if name == "" {
			return nil, fmt.Errorf("organization_name is required")
		}
		org, err := store.GetOrganizationByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if org == nil {
			return map[string]interface{}{"detail": "Organization not found", "policies": []interface{}{}}, nil
		}
		policies, err := store.ListPoliciesForOrganization(ctx, org.ID)
		if err != nil {
			return nil, err
		}
		items := make([]map[string]interface{}, 0, len(policies))
		for _, p := range policies {
			items = append(items, map[string]interface{}{
				"id":                 p.ID,
				"name":               p.Name,
				"description":        p.Description,
				"max_leave_days":     p.MaxLeaveDays,
				"carry_forward_days": p.CarryForwardDays,
				"is_active":          p.IsActive,
			})
		}
		return map[string]interface{}{
			"organization": org.Name,
			"policies":     items,
			"total":        len(items),
		}, nil
	})

	builder.RegisterBase(llm.Tool{
		Name:        "get_policy_details",
		Description: "Returns details of a specific policy by name including document name and file.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{
			"policy_name": {
				Description: "The name of the policy.",
				Type:        "str",
				Required:    true,
			},
		},
	}, func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		name := paramString(params, "policy_name", "")
		if name == "" {
			return nil, fmt.Errorf("policy_name is required")
		}
		policy, err := store.GetPolicyByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if policy == nil {
			return map[string]interface{}{"detail": "Policy not found", "name": name}, nil
		}
		return map[string]interface{}{
			"id":                 policy.ID,
			"name":               policy.Name,
			"description":        policy.Description,
			"max_leave_days":     policy.MaxLeaveDays,
			"carry_forward_days": policy.CarryForwardDays,
			"is_active":          policy.IsActive,
			"organization":       policy.OrganizationName,
		}, nil
	})

	builder.RegisterBase(llm.Tool{
		Name:        "get_leave_allowance",
		Description: "Returns leave allowance details for an organization or a specific policy.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{
			"organization_name": {
				Description: "The name of the organization.",
				Type:        "str",
				Required:    true,
			},
			"policy_name": {
				Description: "Optional policy name to narrow the result.",
				Type:        "str",
				Required:    false,
			},
		},
	}, func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		name := paramString(params, "organization_name", "")
		if name == "" {
			return nil, fmt.Errorf("organization_name is required")
		}
		org, err := store.GetOrganizationByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if org == nil {
			return map[string]interface{}{"detail": "Organization not found"}, nil
		}
		policies, err := store.ListLeavePolicies(ctx, org.ID, paramString(params, "policy_name", ""))
		if err != nil {
			return nil, err
		}
		if len(policies) == 0 {
			return map[string]interface{}{"detail": "No policies found", "organization": org.Name}, nil
		}
		items := make([]map[string]interface{}, 0, len(policies))
		for _, p := range policies {
			items = append(items, map[string]interface{}{
				"policy_name":        p.Name,
				"max_leave_days":     p.MaxLeaveDays,
				"carry_forward_days": p.CarryForwardDays,
			})
		}
		return map[string]interface{}{
			"organization":   org.Name,
			"leave_policies": items,
		}, nil
	})

	builder.RegisterBase(llm.Tool{
		Name:        "search_policy_embeddings",
		Description: "Searches policy document embeddings to answer policy questions.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{
			"query": {
				Description: "The policy question or search query.",
				Type:        "str",
				Required:    true,
			},
			"top_k": {
				Description: "Number of relevant chunks to return.",
				Type:        "int",
				Required:    false,
			},
		},
	}, func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		query := paramString(params, "query", "")
		if query == "" {
			return nil, fmt.Errorf("query is required")
		}
		if searcher == nil {
			return nil, fmt.Errorf("policy search is not configured")
		}
		matches, err := searcher.Query(ctx, query, paramInt(params, "top_k", 0), nil, rag.QueryTypeToolCall)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"matches": matchMaps(matches),
			"total":   len(matches),
		}, nil
	})

	builder.RegisterGated(llm.Tool{
		Name: "get_my_organization_details",
		Description: "Returns the organization(s) that the requesting user belongs to. " +
			"Use this when the user asks about 'my organization', 'details of my organization', " +
			"'tell me about my organization', or similar. Looks up the user's memberships and returns org details.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{},
	}, func(userID string) ToolFunc {
		return func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			orgs, err := store.ListOrganizationsForUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			if len(orgs) == 0 {
				return map[string]interface{}{
					"detail":        "You are not a member of any organization.",
					"organizations": []interface{}{},
				}, nil
			}
			items := make([]map[string]interface{}, 0, len(orgs))
			for _, org := range orgs {
				items = append(items, map[string]interface{}{
					"id":          org.ID,
					"name":        org.Name,
					"description": org.Description,
					"address":     org.Address,
					"email":       org.Email,
					"phone":       org.Phone,
					"is_active":   org.IsActive,
				})
			}
			return map[string]interface{}{"organizations": items, "total": len(items)}, nil
		}
	})

	builder.RegisterGated(llm.Tool{
		Name: "search_my_organization_policies",
		Description: "Searches policy documents that belong to the requesting user's organization(s) " +
			"and returns relevant excerpts to answer their question. Use this when the user " +
			"asks about leave policy, PTO, sick leave, vacation, benefits, or any policy " +
			"that applies to their organization. Answers are based only on policies from " +
			"organizations the user is a member of.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{
			"query": {
				Description: "The user's policy question or what they want to know.",
				Type:        "str",
				Required:    true,
			},
			"top_k": {
				Description: "Number of relevant policy chunks to return (default 5).",
				Type:        "int",
				Required:    false,
			},
		},
	}, func(userID string) ToolFunc {
		return func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			query := paramString(params, "query", "")
			if query == "" {
				return nil, fmt.Errorf("query is required")
			}
			orgIDs, err := store.GetOrganizationIDsForUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			if len(orgIDs) == 0 {
				return map[string]interface{}{
					"detail":  "You are not a member of any organization. No policies to search.",
					"matches": []interface{}{},
				}, nil
			}
			if searcher == nil {
				return nil, fmt.Errorf("policy search is not configured")
			}
			matches, err := searcher.Query(ctx, query, paramInt(params, "top_k", 0), orgIDs, rag.QueryTypeToolCall)
			if err != nil {
				return nil, err
			}
			if len(matches) == 0 {
				return map[string]interface{}{
					"detail":  "No matching policy content found in your organization's policies.",
					"matches": []interface{}{},
				}, nil
			}
			return map[string]interface{}{
				"detail":  fmt.Sprintf("Found %d relevant excerpt(s) from your organization's policies.", len(matches)),
				"matches": matchMaps(matches),
			}, nil
		}
	})

	builder.RegisterGated(llm.Tool{
		Name: "get_my_pending_leaves",
		Description: "Returns the requesting user's approved leaves summary and leave policy excerpts " +
			"to determine how many leaves are pending/remaining. Use when the user asks " +
			"'how many leaves are pending of mine?', 'leaves remaining', 'my leave balance', " +
			"'how many days do I have left?', or similar. Combines approved leave count from " +
			"the database with leave policy from the organization to compute pending leaves.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{},
	}, func(userID string) ToolFunc {
		return func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			orgIDs, err := store.GetOrganizationIDsForUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			if len(orgIDs) == 0 {
				return map[string]interface{}{
					"detail":          "You are not a member of any organization. No leave data available.",
					"approved_leaves": []interface{}{},
					"policy_excerpts": []interface{}{},
				}, nil
			}
			approved, totalDays, err := store.GetApprovedLeavesSummary(ctx, userID)
			if err != nil {
				return nil, err
			}
			var matches []rag.Match
			if searcher != nil {
				matches, err = searcher.Query(ctx, pendingLeavesQuery, 0, orgIDs, rag.QueryTypeToolCall)
				if err != nil {
					return nil, err
				}
			}
			leaves := make([]map[string]interface{}, 0, len(approved))
			for _, leave := range approved {
				leaves = append(leaves, map[string]interface{}{
					"organization": leave.OrganizationName,
					"leave_type":   leave.LeaveType,
					"days":         leave.Days,
				})
			}
			excerpts := make([]map[string]interface{}, 0, len(matches))
			for _, m := range matches {
				excerpts = append(excerpts, map[string]interface{}{
					"text":        m.Text,
					"policy_name": m.PolicyName,
				})
			}
			return map[string]interface{}{
				"detail":              "Your approved leaves and relevant leave policy. Use policy excerpts to determine total allowance and compute pending = allowance - approved.",
				"approved_leaves":     leaves,
				"total_approved_days": totalDays,
				"policy_excerpts":     excerpts,
			}, nil
		}
	})
}
