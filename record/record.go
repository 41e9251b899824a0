/*
Package record streams and models the raw Yelp dataset files.

PURPOSE:
  Each dataset file (business.json, user.json, review.json, checkin.json,
  tip.json, photo.json) is newline-delimited JSON: one complete record per
  line. This package turns such a file into a lazy sequence of decoded
  records, so a multi-gigabyte file is processed one record at a time.

RECORD TYPES:
  Business, User, Review, Checkin, Tip, Photo mirror the source field
  names exactly. Nullable source fields (categories, attributes, hours)
  decode to nil when the JSON value is null.

STREAMING CONTRACT:
  Each() re-opens the file on every call, so a second pass over the same
  file (the friend-graph pass over user.json) is just a second call.
  Decoding stops at the first malformed line; the error carries the file
  name and line number.

SEE ALSO:
  - flatten.go: business attribute flattening
  - literal.go: safe parsing of the Python-literal value strings
  - loader package: drives Each() for every entity kind
*/
package record

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Business is one line of business.json.
type Business struct {
	BusinessID  string            `json:"business_id"`
	Name        string            `json:"name"`
	Address     string            `json:"address"`
	City        string            `json:"city"`
	State       string            `json:"state"`
	PostalCode  string            `json:"postal_code"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Stars       float64           `json:"stars"`
	ReviewCount int               `json:"review_count"`
	IsOpen      int               `json:"is_open"`
	Categories  *string           `json:"categories"`
	Attributes  map[string]any    `json:"attributes"`
	Hours       map[string]string `json:"hours"`
}

// User is one line of user.json.
type User struct {
	UserID            string  `json:"user_id"`
	Name              string  `json:"name"`
	ReviewCount       int     `json:"review_count"`
	YelpingSince      string  `json:"yelping_since"`
	Useful            int     `json:"useful"`
	Funny             int     `json:"funny"`
	Cool              int     `json:"cool"`
	Fans              int     `json:"fans"`
	AverageStars      float64 `json:"average_stars"`
	ComplimentHot     int     `json:"compliment_hot"`
	ComplimentMore    int     `json:"compliment_more"`
	ComplimentProfile int     `json:"compliment_profile"`
	ComplimentCute    int     `json:"compliment_cute"`
	ComplimentList    int     `json:"compliment_list"`
	ComplimentNote    int     `json:"compliment_note"`
	ComplimentPlain   int     `json:"compliment_plain"`
	ComplimentCool    int     `json:"compliment_cool"`
	ComplimentFunny   int     `json:"compliment_funny"`
	ComplimentWriter  int     `json:"compliment_writer"`
	ComplimentPhotos  int     `json:"compliment_photos"`
	Elite             string  `json:"elite"`
	Friends           string  `json:"friends"`
}

// Review is one line of review.json.
type Review struct {
	ReviewID   string  `json:"review_id"`
	UserID     string  `json:"user_id"`
	BusinessID string  `json:"business_id"`
	Stars      float64 `json:"stars"`
	Date       string  `json:"date"`
	Text       string  `json:"text"`
	Useful     int     `json:"useful"`
	Funny      int     `json:"funny"`
	Cool       int     `json:"cool"`
}

// Checkin is one line of checkin.json. Date holds every check-in
// timestamp for the business, comma-joined.
type Checkin struct {
	BusinessID string `json:"business_id"`
	Date       string `json:"date"`
}

// Tip is one line of tip.json.
type Tip struct {
	BusinessID      string `json:"business_id"`
	UserID          string `json:"user_id"`
	Text            string `json:"text"`
	Date            string `json:"date"`
	ComplimentCount int    `json:"compliment_count"`
}

// Photo is one line of photo.json.
type Photo struct {
	PhotoID    string `json:"photo_id"`
	BusinessID string `json:"business_id"`
	Caption    string `json:"caption"`
	Label      string `json:"label"`
}

// maxLineBytes bounds a single record. Power users list tens of
// thousands of friends on one line, far past bufio's 64K default.
const maxLineBytes = 16 << 20

// Each streams the newline-delimited JSON file at path, decoding each
// line into T and passing it to fn. It stops at the first error from
// decoding or from fn.
func Each[T any](path string, fn func(T) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open record file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("decode %s line %d: %w", filepath.Base(path), lineNo, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SplitList splits a ", "-joined source list (categories, friends) into
// trimmed elements. The source joins with comma-space, not bare comma.
func SplitList(s string) []string {
	parts := strings.Split(s, ", ")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
