package orglookup

import (
	"encoding/json"

	"github.com/google/martian/har"
)

// NewRecorder returns a HAR logger that keeps response bodies of probe requests
func NewRecorder() *har.Logger {
	recorder := har.NewLogger()
	recorder.SetOption(har.BodyLogging(true))
	recorder.SetOption(har.PostDataLogging(false))

	return recorder
}

// ExportHAR serializes and clears everything the recorder has captured
func ExportHAR(recorder *har.Logger) ([]byte, error) {
	return json.Marshal(recorder.ExportAndReset())
}
