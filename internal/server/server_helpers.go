package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"

	"github.com/lexread/lexread/internal/server/httpx"
	"github.com/lexread/lexread/internal/version"
)

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func serverInfoHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"name":    "lexread",
		"version": version.Current(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}
