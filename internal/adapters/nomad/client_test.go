package nomad_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/EBB2675/curator/internal/adapters/nomad"
	"github.com/EBB2675/curator/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// fastBackoff keeps retry tests quick.
func fastBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond
	b.MaxElapsedTime = 250 * time.Millisecond
	return b
}

func pageResponse(next string, hits ...map[string]any) map[string]any {
	return map[string]any{
		"data":       hits,
		"pagination": map[string]any{"next_page_after_value": next},
	}
}

func hit(id string, author any, structuralType string) map[string]any {
	h := map[string]any{
		"entry_id":    id,
		"upload_id":   "upload-" + id,
		"mainfile":    id + "/orca.out",
		"main_author": author,
	}
	if structuralType != "" {
		h["results"] = map[string]any{
			"material": map[string]any{"structural_type": structuralType},
		}
	}
	return h
}

func TestFetchAll(t *testing.T) {
	Convey("Given a paginated catalog", t, func() {
		var bodies []map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			bodies = append(bodies, body)

			var resp map[string]any
			switch len(bodies) {
			case 1:
				resp = pageResponse("e2",
					hit("e1", "Ada Lovelace", "bulk"),
					hit("e2", map[string]any{"name": "Bob"}, "molecule / cluster"))
			default:
				resp = pageResponse("",
					hit("e3", nil, ""))
			}
			_ = json.NewEncoder(w).Encode(resp)
		}))
		defer srv.Close()

		client := nomad.NewClient(
			nomad.WithBaseURL(srv.URL),
			nomad.WithOwner("visible"),
			nomad.WithProgramName("ORCA"),
			nomad.WithPageSize(2),
			nomad.WithBackoffFactory(fastBackoff),
		)

		Convey("When fetching the full population", func() {
			records, err := client.FetchAll(context.Background())

			Convey("Then all pages are consumed and hits normalized", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 3)
				So(records[0].EntryID, ShouldEqual, "e1")
				So(records[0].MainAuthor, ShouldEqual, "Ada Lovelace")
				So(records[0].System, ShouldEqual, "bulk")
				So(records[1].MainAuthor, ShouldEqual, "Bob")
				So(records[2].MainAuthor, ShouldEqual, "unknown")
				So(records[2].System, ShouldEqual, "unknown")
			})

			Convey("Then the query carries the configured filters", func() {
				So(len(bodies), ShouldEqual, 2)
				So(bodies[0]["owner"], ShouldEqual, "visible")
				query := bodies[0]["query"].(map[string]any)
				So(query["results.method.simulation.program_name"], ShouldEqual, "ORCA")
				pagination := bodies[0]["pagination"].(map[string]any)
				So(pagination["order_by"], ShouldEqual, "entry_id")
				So(pagination["page_size"], ShouldEqual, float64(2))
				So(pagination["page_after_value"], ShouldBeNil)
			})

			Convey("Then the second request resumes after the last entry", func() {
				pagination := bodies[1]["pagination"].(map[string]any)
				So(pagination["page_after_value"], ShouldEqual, "e2")
			})
		})
	})
}

func TestFetchAllRejectsMalformedHits(t *testing.T) {
	Convey("Given a page containing a hit without entry_id", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp := pageResponse("",
				hit("e1", "Ada", "bulk"),
				hit("", "Ghost", "bulk"),
				hit("e2", "Bob", "bulk"))
			_ = json.NewEncoder(w).Encode(resp)
		}))
		defer srv.Close()

		client := nomad.NewClient(nomad.WithBaseURL(srv.URL), nomad.WithBackoffFactory(fastBackoff))

		Convey("When fetching", func() {
			records, err := client.FetchAll(context.Background())

			Convey("Then the malformed hit is dropped, the rest kept", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 2)
				So(records[0].EntryID, ShouldEqual, "e1")
				So(records[1].EntryID, ShouldEqual, "e2")
			})
		})
	})
}

func TestFetchAllRetriesTransientFailures(t *testing.T) {
	Convey("Given a server that fails twice before succeeding", t, func() {
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts <= 2 {
				http.Error(w, "upstream hiccup", http.StatusInternalServerError)
				return
			}
			_ = json.NewEncoder(w).Encode(pageResponse("", hit("e1", "Ada", "bulk")))
		}))
		defer srv.Close()

		client := nomad.NewClient(nomad.WithBaseURL(srv.URL), nomad.WithBackoffFactory(fastBackoff))

		Convey("When fetching", func() {
			records, err := client.FetchAll(context.Background())

			Convey("Then the fetch recovers after retries", func() {
				So(err, ShouldBeNil)
				So(attempts, ShouldEqual, 3)
				So(len(records), ShouldEqual, 1)
			})
		})
	})
}

func TestFetchAllPermanentFailures(t *testing.T) {
	Convey("Given a server that rejects the query", t, func() {
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			http.Error(w, `{"detail": "bad query"}`, http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		client := nomad.NewClient(nomad.WithBaseURL(srv.URL), nomad.WithBackoffFactory(fastBackoff))

		Convey("When fetching", func() {
			_, err := client.FetchAll(context.Background())

			Convey("Then the error surfaces without retries", func() {
				So(errors.Is(err, nomad.ErrFetchFailed), ShouldBeTrue)
				So(errors.Is(err, nomad.ErrUnexpectedStatus), ShouldBeTrue)
				So(attempts, ShouldEqual, 1)
			})
		})
	})
}

func TestFetchAllEmptyPopulation(t *testing.T) {
	Convey("Given a catalog with no matching entries", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(pageResponse(""))
		}))
		defer srv.Close()

		client := nomad.NewClient(nomad.WithBaseURL(srv.URL), nomad.WithBackoffFactory(fastBackoff))

		Convey("When fetching", func() {
			_, err := client.FetchAll(context.Background())

			Convey("Then the run fails rather than sampling nothing", func() {
				So(errors.Is(err, nomad.ErrEmptyPopulation), ShouldBeTrue)
			})
		})
	})
}

func TestFetchAllManyPages(t *testing.T) {
	Convey("Given a catalog spanning several pages", t, func() {
		const pages = 5
		page := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			page++
			next := fmt.Sprintf("page-%d", page)
			if page == pages {
				next = ""
			}
			resp := pageResponse(next,
				hit(fmt.Sprintf("e%d-1", page), "Ada", "bulk"),
				hit(fmt.Sprintf("e%d-2", page), "Bob", "bulk"))
			_ = json.NewEncoder(w).Encode(resp)
		}))
		defer srv.Close()

		client := nomad.NewClient(nomad.WithBaseURL(srv.URL), nomad.WithBackoffFactory(fastBackoff))

		Convey("When fetching", func() {
			records, err := client.FetchAll(context.Background())

			Convey("Then every page's hits are collected in order", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, pages*2)
				So(records[0].EntryID, ShouldEqual, "e1-1")
				So(records[len(records)-1].EntryID, ShouldEqual, fmt.Sprintf("e%d-2", pages))
			})
		})
	})
}
