package db

import (
	"encoding/csv"
	"os"
	"strings"

	"gorm.io/gorm"
)

type WordRecord struct {
	Difficulty string
	Text       string
}

// ImportWords reads difficulty,word rows from a CSV and upserts them into word_entries.
func ImportWords(conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, nil
	}
	records, err := ReadWordCSV(path)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, record := range records {
		entry := WordEntry{
			Difficulty: record.Difficulty,
			Text:       record.Text,
		}
		if err := conn.FirstOrCreate(&entry, WordEntry{Difficulty: entry.Difficulty, Text: entry.Text}).Error; err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// ReadWordCSV skips the header row and any row missing a difficulty or word.
func ReadWordCSV(path string) ([]WordRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var records []WordRecord
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		difficulty := strings.ToLower(strings.TrimSpace(row[0]))
		text := strings.TrimSpace(row[1])
		if difficulty == "" || text == "" || strings.HasPrefix(text, "-") {
			continue
		}
		records = append(records, WordRecord{Difficulty: difficulty, Text: text})
	}
	return records, nil
}

// LoadWordLists groups every stored word by difficulty.
func LoadWordLists(conn *gorm.DB) (map[string][]string, error) {
	var entries []WordEntry
	if err := conn.Order("difficulty, id").Find(&entries).Error; err != nil {
		return nil, err
	}
	lists := make(map[string][]string)
	for _, entry := range entries {
		lists[entry.Difficulty] = append(lists[entry.Difficulty], entry.Text)
	}
	return lists, nil
}
