package misc

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"

	log "github.com/sirupsen/logrus"
)

// Quote is a motivational quote shown on the dashboard.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

type QuotesManager struct {
	Quotes []*Quote
}

func NewQuoteManager(quotesCsvReader *csv.Reader) (*QuotesManager, error) {
	qm := &QuotesManager{}

	quotesCsvReader.Comma = ';'
	for {
		// QUOTE;AUTHOR;GENRE
		record, err := quotesCsvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(record) != 3 {
			return nil, fmt.Errorf("record [%s] does not have 3 elements", record)
		}

		qm.Quotes = append(qm.Quotes, &Quote{
			Text:   record[0],
			Author: record[1],
			Genre:  record[2],
		})
	}

	if len(qm.Quotes) == 0 {
		return nil, fmt.Errorf("no quotes read")
	}

	log.Debugf("quotes CSV read %d quotes", len(qm.Quotes))

	return qm, nil
}

func (qm *QuotesManager) RandomQuote() *Quote {
	return qm.Quotes[rand.Intn(len(qm.Quotes))]
}
