package db

import (
	"encoding/json"

	"github.com/mickablondo/voting-node/types"
	"go.vocdoni.io/dvote/log"
)

// StoreSignal appends a signal with the given name and JSON payload to the
// journal
func (r *SQLite) StoreSignal(name string, payload []byte) error {
	sqlQuery := `
	INSERT INTO signals(
		name,
		payload,
		insertedDatetime
	) values(?, ?, CURRENT_TIMESTAMP)
	`

	stmt, err := r.db.Prepare(sqlQuery)
	if err != nil {
		return err
	}
	defer stmt.Close() //nolint:errcheck

	_, err = stmt.Exec(name, payload)
	if err != nil {
		return err
	}
	return nil
}

// ReadSignals reads all the journaled signals in insertion order
func (r *SQLite) ReadSignals() ([]types.SignalRecord, error) {
	sqlQuery := `
	SELECT id, name, payload, insertedDatetime FROM signals ORDER BY id ASC
	`

	rows, err := r.db.Query(sqlQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var records []types.SignalRecord
	for rows.Next() {
		record := types.SignalRecord{}
		var payload []byte
		err = rows.Scan(&record.ID, &record.Name, &payload,
			&record.InsertedDatetime)
		if err != nil {
			return nil, err
		}
		record.Payload = json.RawMessage(payload)
		records = append(records, record)
	}
	return records, nil
}

// ReadSignalsByName reads the journaled signals with the given name, in
// insertion order
func (r *SQLite) ReadSignalsByName(name string) ([]types.SignalRecord, error) {
	sqlQuery := `
	SELECT id, name, payload, insertedDatetime FROM signals
	WHERE name = ?
	ORDER BY id ASC
	`

	rows, err := r.db.Query(sqlQuery, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var records []types.SignalRecord
	for rows.Next() {
		record := types.SignalRecord{}
		var payload []byte
		err = rows.Scan(&record.ID, &record.Name, &payload,
			&record.InsertedDatetime)
		if err != nil {
			return nil, err
		}
		record.Payload = json.RawMessage(payload)
		records = append(records, record)
	}
	return records, nil
}

// Listen journals every signal received on the given channel until the
// channel is closed. Meant to be run in its own goroutine, subscribed to the
// session's events manager.
func (r *SQLite) Listen(ch <-chan types.Signal) {
	for signal := range ch {
		payload, err := json.Marshal(signal)
		if err != nil {
			log.Errorf("can not encode the signal payload: %v", err)
			continue
		}
		if err := r.StoreSignal(signal.SignalName(), payload); err != nil {
			log.Warnw("can not journal the signal",
				"signal", signal.SignalName(), "err", err)
		}
	}
}
