package guppydb

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/stellularorg/guppy/internal/model"
	"github.com/stellularorg/guppy/internal/utility"
)

// GetLogByID fetches a log, cache-first under "log:<id>".
func (g *GuppyDB) GetLogByID(id string) model.DefaultReturn[*model.Log] {
	if cached, ok := g.cache.Get("log:" + id); ok {
		var log model.Log
		if err := json.Unmarshal([]byte(cached), &log); err != nil {
			return model.Fail[*model.Log]("corrupt cached log record: " + err.Error())
		}
		return model.Okay("Log exists (cache)", &log)
	}

	var log model.Log
	query := g.db.Rebind(`SELECT * FROM "Logs" WHERE "id" = ?`)

	if err := g.db.Get(&log, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Fail[*model.Log]("Log does not exist")
		}
		return model.Fail[*model.Log](err.Error())
	}

	if encoded, err := json.Marshal(log); err == nil {
		g.cache.Set("log:"+id, string(encoded))
	}

	return model.Okay("Log exists", &log)
}

// CreateLog appends a log of the given type. The payload is the new log id.
func (g *GuppyDB) CreateLog(logtype string, content string) model.DefaultReturn[string] {
	id := utility.RandomID()

	query := g.db.Rebind(`INSERT INTO "Logs" VALUES (?, ?, ?, ?)`)
	if _, err := g.db.Exec(query, id, logtype, utility.UnixEpochTimestamp(), content); err != nil {
		return model.Fail[string](err.Error())
	}

	return model.Okay("Log created!", id)
}

// EditLog replaces a log's content and patches the cached copy in place.
func (g *GuppyDB) EditLog(id string, content string) model.DefaultReturn[string] {
	existing := g.GetLogByID(id)
	if !existing.Success {
		return model.Fail[string]("Log does not exist!")
	}

	query := g.db.Rebind(`UPDATE "Logs" SET "content" = ? WHERE "id" = ?`)
	if _, err := g.db.Exec(query, content, id); err != nil {
		return model.Fail[string](err.Error())
	}

	if cached, ok := g.cache.Get("log:" + id); ok {
		var log model.Log
		if err := json.Unmarshal([]byte(cached), &log); err != nil {
			g.cache.Remove("log:" + id)
		} else {
			log.Content = content
			if encoded, err := json.Marshal(log); err == nil {
				g.cache.Update("log:"+id, string(encoded))
			}
		}
	}

	return model.Okay("Log updated!", id)
}

// DeleteLog hard-deletes a log and drops its cache entry.
func (g *GuppyDB) DeleteLog(id string) model.DefaultReturn[string] {
	existing := g.GetLogByID(id)
	if !existing.Success {
		return model.Fail[string]("Log does not exist!")
	}

	query := g.db.Rebind(`DELETE FROM "Logs" WHERE "id" = ?`)
	if _, err := g.db.Exec(query, id); err != nil {
		return model.Fail[string](err.Error())
	}

	g.cache.Remove("log:" + id)

	return model.Okay("Log deleted!", id)
}
