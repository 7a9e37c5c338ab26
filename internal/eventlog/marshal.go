package eventlog

import (
	"context"
	"encoding/json"
)

func marshalEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}

func contextBackground() context.Context {
	return context.Background()
}
