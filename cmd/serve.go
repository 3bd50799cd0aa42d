package cmd

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jsphweid/chartdex/document"
	"github.com/jsphweid/chartdex/model"
	"github.com/jsphweid/chartdex/song"
	"github.com/rs/cors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	serveCmd.Flags().StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "listen address")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves converted charts over HTTP",
	Long:  `Serves the charts in the output directory: song list, per song chart summaries and the bmson documents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		slog.Info("serving", "addr", cfg.ListenAddr, "dir", cfg.OutDir)
		return http.ListenAndServe(cfg.ListenAddr, NewHandler(cfg.OutDir))
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// NewHandler builds the router; the output directory is re-scanned per request
// so charts converted while serving show up.
func NewHandler(outDir string) http.Handler {
	router := mux.NewRouter().StrictSlash(true)

	router.HandleFunc("/songs", func(w http.ResponseWriter, r *http.Request) {
		entries, err := song.Catalog(outDir)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		grouped := lo.GroupBy(entries, func(e song.Entry) uint32 { return e.SongID })
		res := make([]model.SongSummary, 0, len(grouped))
		for _, id := range lo.Uniq(lo.Map(entries, func(e song.Entry, _ int) uint32 { return e.SongID })) {
			res = append(res, model.SongSummary{
				SongID: id,
				Charts: lo.Map(grouped[id], func(e song.Entry, _ int) string { return e.Difficulty.Short() }),
			})
		}
		writeJSON(w, http.StatusOK, res)
	}).Methods(http.MethodGet)

	router.HandleFunc("/songs/{id:[0-9]+}/charts", func(w http.ResponseWriter, r *http.Request) {
		entries, ok := songEntries(w, r, outDir)
		if !ok {
			return
		}
		res := make([]model.ChartSummary, 0, len(entries))
		for _, e := range entries {
			s, err := song.Summarize(e)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			res = append(res, s)
		}
		writeJSON(w, http.StatusOK, res)
	}).Methods(http.MethodGet)

	router.HandleFunc("/songs/{id:[0-9]+}/charts/{difficulty}", func(w http.ResponseWriter, r *http.Request) {
		entries, ok := songEntries(w, r, outDir)
		if !ok {
			return
		}
		d, err := model.ParseDifficulty(mux.Vars(r)["difficulty"])
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		e, found := lo.Find(entries, func(e song.Entry) bool { return e.Difficulty == d })
		if !found {
			writeError(w, http.StatusNotFound, "chart not found")
			return
		}
		doc, err := document.Read(e.Path)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}).Methods(http.MethodGet)

	return cors.Default().Handler(router)
}

func songEntries(w http.ResponseWriter, r *http.Request, outDir string) ([]song.Entry, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid song id")
		return nil, false
	}
	entries, err := song.Catalog(outDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	entries = lo.Filter(entries, func(e song.Entry, _ int) bool { return e.SongID == uint32(id) })
	if len(entries) == 0 {
		writeError(w, http.StatusNotFound, "song not found")
		return nil, false
	}
	return entries, true
}
