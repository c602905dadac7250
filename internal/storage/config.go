package storage

const (
	KEY_DEPLOYMENT = "storage::deployment"
)

const (
	TABLE_NAME_SUBMISSION = "submissions"
)
