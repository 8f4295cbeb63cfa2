package storage

import (
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is one stored image found by List.
type Entry struct {
	Name        string    `json:"name"`
	Filename    string    `json:"filename"`
	URL         string    `json:"url"`
	Path        string    `json:"path"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedTime time.Time `json:"created_time"`
}

// List returns the PNG files stored under root for the day of date, newest
// first. nameFilter is a case-insensitive substring match on the file stem;
// empty matches everything. A day with no directory yields no entries.
func List(root, urlPrefix string, date time.Time, nameFilter string) ([]Entry, error) {
	day := date.Format("2006/01/02")
	dir := filepath.Join(root, filepath.FromSlash(day))

	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	filter := strings.ToLower(nameFilter)
	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.EqualFold(filepath.Ext(f.Name()), ".png") {
			continue
		}
		stem := strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
		if filter != "" && !strings.Contains(strings.ToLower(stem), filter) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:        stem,
			Filename:    f.Name(),
			URL:         joinURL(urlPrefix, day+"/"+url.PathEscape(f.Name())),
			Path:        filepath.Join(dir, f.Name()),
			SizeBytes:   info.Size(),
			CreatedTime: info.ModTime(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedTime.Equal(entries[j].CreatedTime) {
			return entries[i].Filename > entries[j].Filename
		}
		return entries[i].CreatedTime.After(entries[j].CreatedTime)
	})
	return entries, nil
}
