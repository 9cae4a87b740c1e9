package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	// Register general tasks
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	// Register entitlement tasks
	RegisterHandler(ExpireEntitlementsTask.TaskID(), ExpireEntitlementsTask.HandleExecution)

	// Register lead tasks
	RegisterHandler(LeadFollowUpTask.TaskID(), LeadFollowUpTask.HandleExecution)
}
