package types

// Outbound event names sent to the notification server.
const (
	EventJoinRoom           = "join-room"
	EventLeaveRoom          = "leave-room"
	EventSendMessage        = "send-message"
	EventUpdateStatus       = "update-status"
	EventAcceptVideoCall    = "accept-video-call"
	EventRejectVideoCall    = "reject-video-call"
	EventRequestStatsUpdate = "request-stats-update"
)

// Inbound event names delivered by the notification server.
// EventVideoCallRequest is symmetric: sent when initiating a call,
// received when someone calls us.
const (
	EventStatsUpdate           = "stats-update"
	EventUsersOnline           = "users-online"
	EventNewAppointment        = "new-appointment"
	EventAppointmentCancelled  = "appointment-cancelled"
	EventDoctorAvailable       = "doctor-available"
	EventNewMessage            = "new-message"
	EventVideoCallRequest      = "video-call-request"
	EventAdminAlert            = "admin-alert"
	EventUserRegistered        = "user-registered"
	EventPatientBooking        = "patient-booking"
	EventEmergencyConsultation = "emergency-consultation"
)
