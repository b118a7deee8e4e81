package conn

type RequestAction string

const (
	// table actions
	RequestActionCreateTable RequestAction = "createTable"
	RequestActionDropTable   RequestAction = "dropTable"
	RequestActionListTables  RequestAction = "listTables"

	// row actions
	RequestActionInsert RequestAction = "insert"
	RequestActionSelect RequestAction = "select"
	RequestActionUpdate RequestAction = "update"
	RequestActionDelete RequestAction = "delete"
	RequestActionJoin   RequestAction = "join"

	// index actions
	RequestActionCreateIndex RequestAction = "createIndex"
	RequestActionDropIndex   RequestAction = "dropIndex"
	RequestActionLookup      RequestAction = "lookup"

	// raw SQL-ish text, routed through the parser
	RequestActionQuery RequestAction = "query"

	// user actions
	RequestActionCreateUser RequestAction = "createUser"
	RequestActionDeleteUser RequestAction = "deleteUser"
)

func (action RequestAction) IsReadOnly() bool {
	return action == RequestActionSelect || action == RequestActionJoin ||
		action == RequestActionLookup || action == RequestActionListTables
}

func (action RequestAction) IsAdminAction() bool {
	return action == RequestActionCreateUser || action == RequestActionDeleteUser
}
