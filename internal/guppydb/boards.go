package guppydb

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/stellularorg/guppy/internal/model"
	"github.com/stellularorg/guppy/internal/utility"
)

// markerFlagNeedle matches any board whose metadata embeds a mail-stream
// marker, in its nested (escaped) form.
func markerFlagNeedle() string {
	return nested(`"_is_user_mail_stream":true`)
}

func markerPairNeedle(user1 string, user2 string) string {
	marker := model.MailStreamMarker{IsUserMailStream: true, User1: user1, User2: user2}
	return nested(jsonPairs(marker))
}

// GetMailStreamByUsers looks up the mail stream for (user1, user2) in that
// ordering only. The stored relation is directional; callers wanting
// symmetric semantics try the swapped pair too, the way CreateMailStream
// does.
func (g *GuppyDB) GetMailStreamByUsers(user1 string, user2 string) model.DefaultReturn[*model.Board] {
	var board model.Board
	query := g.db.Rebind(`SELECT * FROM "Boards" WHERE "metadata" LIKE ? ESCAPE '\'`)

	if err := g.db.Get(&board, query, contains(markerPairNeedle(user1, user2))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Fail[*model.Board]("Mail stream does not exist")
		}
		return model.Fail[*model.Board](err.Error())
	}

	return model.Okay("Mail stream exists", &board)
}

// CreateMailStream creates the private two-party channel between user1 and
// user2, or returns the existing one: creation is idempotent and
// order-insensitive, so at most one stream exists per unordered pair.
func (g *GuppyDB) CreateMailStream(user1 string, user2 string) model.DefaultReturn[*model.Board] {
	if existing := g.GetMailStreamByUsers(user1, user2); existing.Success {
		return model.Okay("Mail stream exists", existing.Payload)
	}
	if existing := g.GetMailStreamByUsers(user2, user1); existing.Success {
		return model.Okay("Mail stream exists", existing.Payload)
	}

	recipient := g.GetUserByUsername(user2)
	if !recipient.Success {
		return model.Fail[*model.Board]("User does not exist!")
	}

	var recipientMeta model.UserMetadata
	if err := json.Unmarshal([]byte(recipient.Payload.User.Metadata), &recipientMeta); err != nil {
		return model.Fail[*model.Board]("corrupt user metadata record: " + err.Error())
	}
	if recipientMeta.AllowMail != nil && *recipientMeta.AllowMail == "no" {
		return model.Fail[*model.Board]("User does not allow mail!")
	}

	marker, err := json.Marshal(model.MailStreamMarker{
		IsUserMailStream: true,
		User1:            user1,
		User2:            user2,
	})
	if err != nil {
		return model.Fail[*model.Board](err.Error())
	}

	yes := "yes"
	metadata, err := json.Marshal(model.BoardMetadata{
		About:            string(marker),
		Owner:            user1,
		IsPrivate:        &yes,
		AllowOpenPosting: &yes,
	})
	if err != nil {
		return model.Fail[*model.Board](err.Error())
	}

	board := model.Board{
		Name:      "inbox-" + utility.RandomID(),
		Timestamp: utility.UnixEpochTimestamp(),
		Metadata:  string(metadata),
	}

	query := g.db.Rebind(`INSERT INTO "Boards" VALUES (?, ?, ?)`)
	if _, err := g.db.Exec(query, board.Name, board.Timestamp, board.Metadata); err != nil {
		return model.Fail[*model.Board](err.Error())
	}

	return model.Okay("Mail stream created!", &board)
}

// GetUserMailStreams lists the streams user participates in, on either side
// of the pair, newest first, 50 per page. Each entry names the other
// participant.
func (g *GuppyDB) GetUserMailStreams(user string, offset int) model.DefaultReturn[[]model.UserMailStream] {
	if offset < 0 {
		offset = 0
	}

	boards := []model.Board{}
	query := g.db.Rebind(`SELECT * FROM "Boards" WHERE "metadata" LIKE ? ESCAPE '\'
		AND ("metadata" LIKE ? ESCAPE '\' OR "metadata" LIKE ? ESCAPE '\')
		ORDER BY "timestamp" DESC LIMIT 50 OFFSET ?`)

	err := g.db.Select(&boards, query,
		contains(markerFlagNeedle()),
		contains(nested(jsonField("user1", user))),
		contains(nested(jsonField("user2", user))),
		offset,
	)
	if err != nil {
		return model.Fail[[]model.UserMailStream](err.Error())
	}

	streams := make([]model.UserMailStream, 0, len(boards))
	for _, board := range boards {
		var meta model.BoardMetadata
		if err := json.Unmarshal([]byte(board.Metadata), &meta); err != nil {
			return model.Fail[[]model.UserMailStream]("corrupt board metadata record: " + err.Error())
		}

		var marker model.MailStreamMarker
		if err := json.Unmarshal([]byte(meta.About), &marker); err != nil {
			return model.Fail[[]model.UserMailStream]("corrupt mail stream marker: " + err.Error())
		}

		other := marker.User1
		if other == user {
			other = marker.User2
		}
		streams = append(streams, model.UserMailStream{Name: board.Name, User: other})
	}

	return model.Okay("Mail streams exist", streams)
}
