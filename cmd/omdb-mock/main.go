package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Clark-Hu/reelrate/internal/logging"
)

// movieEntry is one fixture movie in OMDb's own field naming.
type movieEntry struct {
	ImdbID     string `json:"imdbID"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated,omitempty"`
	Released   string `json:"Released,omitempty"`
	Runtime    string `json:"Runtime,omitempty"`
	Genre      string `json:"Genre,omitempty"`
	Director   string `json:"Director,omitempty"`
	Writer     string `json:"Writer,omitempty"`
	Actors     string `json:"Actors,omitempty"`
	Plot       string `json:"Plot,omitempty"`
	Language   string `json:"Language,omitempty"`
	Country    string `json:"Country,omitempty"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating,omitempty"`
	ImdbVotes  string `json:"imdbVotes,omitempty"`
	Type       string `json:"Type"`
}

type searchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

type searchEnvelope struct {
	Search       []searchItem `json:"Search"`
	TotalResults string       `json:"totalResults"`
	Response     string       `json:"Response"`
}

type detailsEnvelope struct {
	movieEntry
	Response string `json:"Response"`
}

type failureEnvelope struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func main() {
	var (
		port   = flag.String("port", "9099", "port to listen on")
		data   = flag.String("data", "mock-omdb.json", "path to mock data file")
		apiKey = flag.String("apikey", "", "required apikey value; empty accepts any key")
		debug  = flag.Bool("debug", false, "enable request logging")
	)
	flag.Parse()

	logger, err := logging.New("", *debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	file, err := os.ReadFile(*data)
	if err != nil {
		logger.Fatal("read mock data", zap.Error(err))
	}

	var movies []movieEntry
	if err := json.Unmarshal(file, &movies); err != nil {
		logger.Fatal("parse mock data", zap.Error(err))
	}
	logger.Info("loaded mock entries", zap.Int("count", len(movies)))

	addr := ":" + *port
	logger.Info("mock omdb listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, newHandler(movies, *apiKey, logger)); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newHandler answers the two OMDb lookups: s= for title search and i= for a
// single movie. Failures use OMDb's Response "False" envelope.
func newHandler(movies []movieEntry, apiKey string, logger *zap.Logger) http.Handler {
	byID := make(map[string]movieEntry, len(movies))
	for _, m := range movies {
		byID[m.ImdbID] = m
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		logger.Debug("omdb request", zap.String("query", r.URL.RawQuery))

		if apiKey != "" && q.Get("apikey") != apiKey {
			writeJSON(w, http.StatusUnauthorized, failureEnvelope{Response: "False", Error: "Invalid API key!"})
			return
		}

		switch {
		case q.Get("i") != "":
			m, ok := byID[q.Get("i")]
			if !ok {
				writeJSON(w, http.StatusOK, failureEnvelope{Response: "False", Error: "Incorrect IMDb ID."})
				return
			}
			writeJSON(w, http.StatusOK, detailsEnvelope{movieEntry: m, Response: "True"})
		case q.Get("s") != "":
			needle := strings.ToLower(q.Get("s"))
			var items []searchItem
			for _, m := range movies {
				if strings.Contains(strings.ToLower(m.Title), needle) {
					items = append(items, searchItem{Title: m.Title, Year: m.Year, ImdbID: m.ImdbID, Type: m.Type, Poster: m.Poster})
				}
			}
			if len(items) == 0 {
				writeJSON(w, http.StatusOK, failureEnvelope{Response: "False", Error: "Movie not found!"})
				return
			}
			writeJSON(w, http.StatusOK, searchEnvelope{Search: items, TotalResults: strconv.Itoa(len(items)), Response: "True"})
		default:
			writeJSON(w, http.StatusOK, failureEnvelope{Response: "False", Error: "Something went wrong."})
		}
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
