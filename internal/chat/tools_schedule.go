package chat

import (
	"context"
	"fmt"
	"time"

	"orgdesk/internal/schedule"
	"orgdesk/pkg/llm"
)

const defaultAppointmentDuration = 30

// isoLayouts are the timestamp shapes the model produces. Offsets are
// tolerated but appointments are stored as given.
var isoLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseISOTime(value string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO timestamp %q", value)
}

func appointmentMap(appt *schedule.Appointment) map[string]interface{} {
	return map[string]interface{}{
		"id":            appt.ID,
		"title":         appt.Title,
		"description":   appt.Description,
		"date_and_time": appt.StartsAt.Format("2006-01-02T15:04:05"),
		"duration":      appt.Duration,
		"status":        appt.Status,
	}
}

// RegisterScheduleTools adds the appointment tools to the base registry.
func RegisterScheduleTools(builder *RegistryBuilder, store *schedule.Store) {
	builder.RegisterBase(llm.Tool{
		Name:        "get_appointments_by_date",
		Description: "Returns all appointments for a specific date.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{
			"date": {
				Description: "The date to check in ISO format (YYYY-MM-DD).",
				Type:        "str",
				Required:    true,
			},
		},
	}, func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		raw := paramString(params, "date", "")
		if raw == "" {
			return nil, fmt.Errorf("date is required")
		}
		day, err := parseISOTime(raw)
		if err != nil {
			return nil, err
		}
		appointments, err := store.ListByDate(ctx, day)
		if err != nil {
			return nil, err
		}
		items := make([]map[string]interface{}, 0, len(appointments))
		for i := range appointments {
			items = append(items, appointmentMap(&appointments[i]))
		}
		return map[string]interface{}{
			"date":         day.Format("2006-01-02"),
			"appointments": items,
			"total":        len(items),
		}, nil
	})

	builder.RegisterBase(llm.Tool{
		Name:        "get_appointment_by_title",
		Description: "Returns appointment details by searching for the title.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{
			"title": {
				Description: "The title or partial title of the appointment.",
				Type:        "str",
				Required:    true,
			},
		},
	}, func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		title := paramString(params, "title", "")
		if title == "" {
			return nil, fmt.Errorf("title is required")
		}
		appt, err := store.GetByTitle(ctx, title)
		if err != nil {
			return nil, err
		}
		if appt == nil {
			return map[string]interface{}{"detail": "Appointment not found", "title": title}, nil
		}
		return appointmentMap(appt), nil
	})

	builder.RegisterBase(llm.Tool{
		Name:        "check_time_slot_availability",
		Description: "Checks if a specific time slot is available for scheduling.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{
			"date_and_time": {
				Description: "The date and time to check in ISO format (YYYY-MM-DDTHH:MM:SS).",
				Type:        "str",
				Required:    true,
			},
			"duration": {
				Description: "Duration in minutes (default 30).",
				Type:        "int",
				Required:    false,
			},
		},
	}, func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		raw := paramString(params, "date_and_time", "")
		if raw == "" {
			return nil, fmt.Errorf("date_and_time is required")
		}
		start, err := parseISOTime(raw)
		if err != nil {
			return nil, err
		}
		duration := paramInt(params, "duration", defaultAppointmentDuration)
		conflict, err := store.FindConflict(ctx, start, start.Add(time.Duration(duration)*time.Minute))
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			return map[string]interface{}{
				"available":     false,
				"date_and_time": raw,
				"duration":      duration,
				"conflict_with": conflict.Title,
			}, nil
		}
		return map[string]interface{}{
			"available":     true,
			"date_and_time": raw,
			"duration":      duration,
		}, nil
	})

	builder.RegisterBase(llm.Tool{
		Name:        "create_new_appointment",
		Description: "Creates a new appointment at the specified time.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{
			"title": {
				Description: "The title of the appointment.",
				Type:        "str",
				Required:    true,
			},
			"date_and_time": {
				Description: "The date and time in ISO format (YYYY-MM-DDTHH:MM:SS).",
				Type:        "str",
				Required:    true,
			},
			"duration": {
				Description: "Duration in minutes (default 30).",
				Type:        "int",
				Required:    false,
			},
			"description": {
				Description: "Optional description for the appointment.",
				Type:        "str",
				Required:    false,
			},
		},
	}, func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		title := paramString(params, "title", "")
		raw := paramString(params, "date_and_time", "")
		if title == "" || raw == "" {
			return nil, fmt.Errorf("title and date_and_time are required")
		}
		start, err := parseISOTime(raw)
		if err != nil {
			return nil, err
		}
		duration := paramInt(params, "duration", defaultAppointmentDuration)

		// Re-check availability at creation time; the model may have checked
		// the slot several steps ago.
		conflict, err := store.FindConflict(ctx, start, start.Add(time.Duration(duration)*time.Minute))
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			return map[string]interface{}{
				"detail":        "Time slot not available",
				"conflict_with": conflict.Title,
			}, nil
		}

		appt, err := store.Create(ctx, title, paramString(params, "description", ""), start, duration)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"detail": "Appointment created",
			"appointment": map[string]interface{}{
				"id":            appt.ID,
				"title":         appt.Title,
				"date_and_time": appt.StartsAt.Format("2006-01-02T15:04:05"),
				"duration":      appt.Duration,
				"status":        appt.Status,
			},
		}, nil
	})

	builder.RegisterBase(llm.Tool{
		Name:        "cancel_appointment",
		Description: "Cancels an appointment by title.",
		ParameterDefinitions: map[string]llm.ParameterDefinition{
			"title": {
				Description: "The title of the appointment to cancel.",
				Type:        "str",
				Required:    true,
			},
		},
	}, func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		title := paramString(params, "title", "")
		if title == "" {
			return nil, fmt.Errorf("title is required")
		}
		appt, err := store.CancelByTitle(ctx, title)
		if err != nil {
			return nil, err
		}
		if appt == nil {
			return map[string]interface{}{"detail": "Appointment not found", "title": title}, nil
		}
		return map[string]interface{}{
			"detail": "Appointment cancelled",
			"title":  appt.Title,
			"status": appt.Status,
		}, nil
	})
}
