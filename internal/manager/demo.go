package manager

import "carelink/pkg/types"

// demoEntry is one scripted notification shown while no live connection
// is available.
type demoEntry struct {
	Type     string
	Title    string
	Message  string
	Priority string
}

// demoScript gives the UI activity to display in demo mode. Entries fire
// at fixed intervals after fallback is entered.
var demoScript = []demoEntry{
	{
		Type:     types.NotificationAppointment,
		Title:    "Appointment Reminder",
		Message:  "Your consultation with Dr. Sharma is tomorrow at 10:00 AM",
		Priority: types.PriorityMedium,
	},
	{
		Type:     types.NotificationMessage,
		Title:    "Message from Dr. Sharma",
		Message:  "Please remember to bring your previous test reports",
		Priority: types.PriorityMedium,
	},
	{
		Type:     types.NotificationAvailability,
		Title:    "Doctor Available",
		Message:  "Dr. Patel is now available for consultations",
		Priority: types.PriorityMedium,
	},
	{
		Type:     types.NotificationHealthTip,
		Title:    "Health Tip",
		Message:  "Staying hydrated helps regulate blood pressure. Aim for 8 glasses a day",
		Priority: types.PriorityLow,
	},
}
