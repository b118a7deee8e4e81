package conn

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/reldb/reldb/internal/session"
	"github.com/reldb/reldb/internal/table"
	"github.com/reldb/reldb/pkg"
)

type Response struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	// don't manually set this. it comes from the client
	ReqId int `json:"__reldb_client_req_id__"`
}

func NewErrorResponse(status int, err string) Response {
	return Response{Message: err, Status: status}
}

func NewResponse(status int, message string, data any) Response {
	return Response{Data: data, Message: message, Status: status}
}

func (r Response) Marshal() []byte {
	data, err := json.Marshal(r)
	if err != nil {
		pkg.ErrorLog(err)
		return []byte("{}")
	}
	return data
}

// errorResponse maps engine errors onto HTTP-style statuses: missing
// things are 404, constraint collisions are 409, everything else the
// client sent wrong is 400.
func errorResponse(err error) Response {
	var (
		table_not_found *session.TableNotFoundError
		unknown_column  *table.UnknownColumnError
		index_not_found *table.IndexNotFoundError
		table_exists    *session.TableExistsError
		dup_pk          *table.DuplicatePrimaryKeyError
		dup_unique      *table.DuplicateUniqueValueError
	)

	switch {
	case errors.As(err, &table_not_found), errors.As(err, &unknown_column), errors.As(err, &index_not_found):
		return NewErrorResponse(http.StatusNotFound, err.Error())
	case errors.As(err, &table_exists), errors.As(err, &dup_pk), errors.As(err, &dup_unique):
		return NewErrorResponse(http.StatusConflict, err.Error())
	}
	return NewErrorResponse(http.StatusBadRequest, err.Error())
}
