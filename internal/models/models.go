package models

type InstallRequest struct {
	Name      string `json:"name" validate:"required"`
	Version   string `json:"version" validate:"required"`
	Modloader string `json:"modloader,omitempty" validate:"oneof=none fabric quilt forge ''"`
	// Loader pins a modloader version; empty means latest.
	Loader string `json:"loader_version,omitempty"`
}

type LaunchRequest struct {
	Username    string `json:"username"`
	UUID        string `json:"uuid"`
	AccessToken string `json:"access_token"`
	UserType    string `json:"user_type"`
	SkipModSync bool   `json:"skip_mod_sync,omitempty"`
}

type LaunchResponse struct {
	Args []string `json:"args"`
}

type TaskResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type TaskProgress struct {
	TotalTasks    int   `json:"total_tasks"`
	VerifiedTasks int   `json:"verified_tasks"`
	SkippedTasks  int   `json:"skipped_tasks"`
	FailedTasks   int   `json:"failed_tasks"`
	Downloads     int   `json:"downloads"`
	Retries       int   `json:"retries"`
	Bytes         int64 `json:"bytes"`
}

type TaskStatus struct {
	TaskID   string        `json:"task_id"`
	Status   string        `json:"status" validate:"oneof=running completed failed cancelled pending"`
	Progress *float64      `json:"progress,omitempty"`
	Counters *TaskProgress `json:"counters,omitempty"`
	Error    *string       `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
