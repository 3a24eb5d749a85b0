package lcu

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// Summoner is the signed-in account.
type Summoner struct {
	SummonerID       string `json:"summoner_id"`
	AccountID        string `json:"account_id"`
	PUUID            string `json:"puuid"`
	DisplayName      string `json:"display_name"`
	Level            int64  `json:"summoner_level"`
	ProfileIconID    int64  `json:"profile_icon_id"`
	XPSinceLastLevel int64  `json:"xp_since_last_level"`
	XPUntilNextLevel int64  `json:"xp_until_next_level"`
}

// RankedQueue is the standing in one ranked queue.
type RankedQueue struct {
	QueueType    string `json:"queue_type"`
	Tier         string `json:"tier"`
	Division     string `json:"division"`
	LeaguePoints int64  `json:"league_points"`
	Wins         int64  `json:"wins"`
	Losses       int64  `json:"losses"`
}

// MatchSummary is the signed-in player's line from one recent game.
type MatchSummary struct {
	GameID          int64     `json:"game_id"`
	QueueID         int64     `json:"queue_id"`
	ChampionID      int64     `json:"champion_id"`
	GameMode        string    `json:"game_mode"`
	CreatedAt       time.Time `json:"created_at"`
	DurationSeconds int64     `json:"duration_seconds"`
	Win             bool      `json:"win"`
	Kills           int64     `json:"kills"`
	Deaths          int64     `json:"deaths"`
	Assists         int64     `json:"assists"`
}

var rankedQueues = map[string]bool{
	"RANKED_SOLO_5x5": true,
	"RANKED_FLEX_SR":  true,
}

// CurrentSummoner returns the signed-in summoner.
func (c *Client) CurrentSummoner(ctx context.Context) (*Summoner, error) {
	body, err := c.get(ctx, "/lol-summoner/v1/current-summoner")
	if err != nil {
		return nil, fmt.Errorf("failed to get current summoner: %w", err)
	}

	doc := gjson.ParseBytes(body)
	name := doc.Get("displayName").String()
	if name == "" {
		name = doc.Get("gameName").String()
	}
	if name == "" {
		name = "Unknown"
	}

	return &Summoner{
		SummonerID:       doc.Get("summonerId").String(),
		AccountID:        doc.Get("accountId").String(),
		PUUID:            doc.Get("puuid").String(),
		DisplayName:      name,
		Level:            doc.Get("summonerLevel").Int(),
		ProfileIconID:    doc.Get("profileIconId").Int(),
		XPSinceLastLevel: doc.Get("xpSinceLastLevel").Int(),
		XPUntilNextLevel: doc.Get("xpUntilNextLevel").Int(),
	}, nil
}

// RankedStats returns solo/duo and flex standings. Unranked queues are omitted.
func (c *Client) RankedStats(ctx context.Context) ([]RankedQueue, error) {
	body, err := c.get(ctx, "/lol-ranked/v1/current-ranked-stats")
	if err != nil {
		return nil, fmt.Errorf("failed to get ranked stats: %w", err)
	}

	queues := []RankedQueue{}
	gjson.GetBytes(body, "queues").ForEach(func(_, q gjson.Result) bool {
		queueType := q.Get("queueType").String()
		tier := q.Get("tier").String()
		if !rankedQueues[queueType] || tier == "" || tier == "NONE" {
			return true
		}
		queues = append(queues, RankedQueue{
			QueueType:    queueType,
			Tier:         tier,
			Division:     q.Get("division").String(),
			LeaguePoints: q.Get("leaguePoints").Int(),
			Wins:         q.Get("wins").Int(),
			Losses:       q.Get("losses").Int(),
		})
		return true
	})
	return queues, nil
}

// MatchHistory returns up to count of the signed-in player's recent games.
func (c *Client) MatchHistory(ctx context.Context, count int) ([]MatchSummary, error) {
	if count <= 0 {
		count = 5
	}

	summoner, err := c.CurrentSummoner(ctx)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/lol-match-history/v1/products/lol/%s/matches?begIndex=0&endIndex=%d",
		url.PathEscape(summoner.PUUID), count)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get match history: %w", err)
	}

	return parseMatchHistory(body, summoner.PUUID, count), nil
}

func parseMatchHistory(body []byte, puuid string, count int) []MatchSummary {
	games := gjson.GetBytes(body, "games.games")
	if !games.IsArray() {
		games = gjson.GetBytes(body, "games")
	}

	matches := []MatchSummary{}
	games.ForEach(func(_, game gjson.Result) bool {
		participantID := int64(-1)
		game.Get("participantIdentities").ForEach(func(_, ident gjson.Result) bool {
			if ident.Get("player.puuid").String() == puuid {
				participantID = ident.Get("participantId").Int()
				return false
			}
			return true
		})
		if participantID < 0 {
			return true
		}

		game.Get("participants").ForEach(func(_, p gjson.Result) bool {
			if p.Get("participantId").Int() != participantID {
				return true
			}
			stats := p.Get("stats")
			matches = append(matches, MatchSummary{
				GameID:          game.Get("gameId").Int(),
				QueueID:         game.Get("queueId").Int(),
				ChampionID:      p.Get("championId").Int(),
				GameMode:        game.Get("gameMode").String(),
				CreatedAt:       time.UnixMilli(game.Get("gameCreation").Int()).UTC(),
				DurationSeconds: game.Get("gameDuration").Int(),
				Win:             stats.Get("win").Bool() || stats.Get("win").String() == "Win",
				Kills:           stats.Get("kills").Int(),
				Deaths:          stats.Get("deaths").Int(),
				Assists:         stats.Get("assists").Int(),
			})
			return false
		})
		return len(matches) < count
	})
	return matches
}
