package connect

// WorkoutServiceName is the fully-qualified name of the workout service.
const WorkoutServiceName = "hiit.v1.WorkoutService"

// Procedure paths of WorkoutService.
const (
	StartProcedure     = "/" + WorkoutServiceName + "/Start"
	PauseProcedure     = "/" + WorkoutServiceName + "/Pause"
	ResetProcedure     = "/" + WorkoutServiceName + "/Reset"
	GetStatusProcedure = "/" + WorkoutServiceName + "/GetStatus"
	ConfigureProcedure = "/" + WorkoutServiceName + "/Configure"
	SubscribeProcedure = "/" + WorkoutServiceName + "/Subscribe"
)
