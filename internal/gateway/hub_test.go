package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/acmilanman/chgk/internal/game"
)

// Dispatch tests drive handleMessage directly with channel-only connections;
// the websocket itself is never touched on that path.

func newTestHub() (*Hub, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	session := game.NewSession(clock)
	return NewHub(session, clock, DefaultConfig()), clock
}

func dial(h *Hub, role Role) *Connection {
	c := &Connection{
		ID:   uuid.NewString(),
		Role: role,
		send: make(chan []byte, h.cfg.SendBuffer),
		hub:  h,
	}
	h.register(c)
	return c
}

func drain(t *testing.T, c *Connection) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case raw := <-c.send:
			var env Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				t.Fatalf("unparseable outbound frame: %v", err)
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func send(t *testing.T, h *Hub, c *Connection, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(Envelope{Type: msgType})
	if err != nil {
		t.Fatal(err)
	}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		raw, _ = json.Marshal(struct {
			Type    string `json:"type"`
			Payload any    `json:"payload"`
		}{Type: msgType, Payload: json.RawMessage(body)})
	}
	h.handleMessage(c, raw)
}

func lastOfType(msgs []Envelope, msgType string) (Envelope, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == msgType {
			return msgs[i], true
		}
	}
	return Envelope{}, false
}

func typeList(msgs []Envelope) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

func TestAdminSnapshotOnConnect(t *testing.T) {
	h, _ := newTestHub()
	admin := dial(h, RoleAdmin)

	msgs := drain(t, admin)
	want := []string{MsgAdminState, MsgQuestionsList, MsgTimerUpdate, MsgScoresFull, MsgAnswersUpdate, MsgAdminOK}
	if len(msgs) != len(want) {
		t.Fatalf("snapshot = %v, want %v", typeList(msgs), want)
	}
	for i, w := range want {
		if msgs[i].Type != w {
			t.Fatalf("snapshot[%d] = %s, want %s", i, msgs[i].Type, w)
		}
	}
}

func TestPlayerInitOnConnect(t *testing.T) {
	h, _ := newTestHub()
	player := dial(h, RolePlayer)

	msgs := drain(t, player)
	if len(msgs) != 2 || msgs[0].Type != MsgInitForPlayer || msgs[1].Type != MsgBreakTable {
		t.Fatalf("player init = %v", typeList(msgs))
	}
}

func TestCaptainHello(t *testing.T) {
	h, _ := newTestHub()
	admin := dial(h, RoleAdmin)
	send(t, h, admin, MsgAdminLoadTeams, loadTeamsRequest{Names: []string{"A"}})

	captain := dial(h, RoleCaptain)
	drain(t, captain)

	// Fresh device: no assigned team.
	send(t, h, captain, MsgCaptainHello, helloRequest{DeviceID: "dev-1"})
	msg, ok := lastOfType(drain(t, captain), MsgCaptainSession)
	if !ok {
		t.Fatal("no captain_session reply")
	}
	var sess captainSessionPayload
	json.Unmarshal(msg.Payload, &sess)
	if sess.AssignedTeamID != nil {
		t.Fatalf("fresh device got team %d", *sess.AssignedTeamID)
	}

	// Pick, then a second hello from the same device restores the seat.
	send(t, h, captain, MsgCaptainPickTeam, teamRequest{TeamID: 1})
	if _, ok := lastOfType(drain(t, captain), MsgTeamConfirmed); !ok {
		t.Fatal("no team_confirmed reply")
	}

	send(t, h, captain, MsgCaptainHello, helloRequest{DeviceID: "dev-1"})
	msg, _ = lastOfType(drain(t, captain), MsgCaptainSession)
	json.Unmarshal(msg.Payload, &sess)
	if sess.AssignedTeamID == nil || *sess.AssignedTeamID != 1 {
		t.Fatalf("hello did not restore team: %+v", sess)
	}
}

func TestPickTeamConflictsReportedToSender(t *testing.T) {
	h, _ := newTestHub()
	admin := dial(h, RoleAdmin)
	send(t, h, admin, MsgAdminLoadTeams, loadTeamsRequest{Names: []string{"A"}})

	first := dial(h, RoleCaptain)
	second := dial(h, RoleCaptain)
	send(t, h, first, MsgCaptainHello, helloRequest{DeviceID: "dev-1"})
	send(t, h, second, MsgCaptainHello, helloRequest{DeviceID: "dev-2"})
	send(t, h, first, MsgCaptainPickTeam, teamRequest{TeamID: 1})
	drain(t, first)
	drain(t, second)

	send(t, h, second, MsgCaptainPickTeam, teamRequest{TeamID: 1})
	msg, ok := lastOfType(drain(t, second), MsgError)
	if !ok {
		t.Fatal("taken team produced no error for the second captain")
	}
	var body messagePayload
	json.Unmarshal(msg.Payload, &body)
	if body.Message == "" {
		t.Fatal("error carried no message text")
	}
	// The first captain must not be disturbed.
	if msgs := drain(t, first); len(msgs) != 0 {
		t.Fatalf("first captain received %v", typeList(msgs))
	}
}

func TestCaptainAnswerFlow(t *testing.T) {
	h, _ := newTestHub()
	admin := dial(h, RoleAdmin)
	send(t, h, admin, MsgAdminLoadTeams, loadTeamsRequest{Names: []string{"A"}})
	send(t, h, admin, MsgAdminLoadQuestions, loadQuestionsRequest{
		Questions: []game.QuestionImport{{Text: "Q1", Answer: "A1"}},
	})

	captain := dial(h, RoleCaptain)
	send(t, h, captain, MsgCaptainHello, helloRequest{DeviceID: "dev-1"})
	drain(t, captain)

	// No team yet.
	send(t, h, captain, MsgCaptainAnswer, answerRequest{Text: "guess"})
	if _, ok := lastOfType(drain(t, captain), MsgError); !ok {
		t.Fatal("answer without a team was accepted")
	}

	send(t, h, captain, MsgCaptainPickTeam, teamRequest{TeamID: 1})
	drain(t, captain)

	// Still in the waiting view.
	send(t, h, captain, MsgCaptainAnswer, answerRequest{Text: "guess"})
	if _, ok := lastOfType(drain(t, captain), MsgError); !ok {
		t.Fatal("answer outside the question view was accepted")
	}

	send(t, h, admin, MsgAdminShowNext, nil)
	drain(t, admin)
	drain(t, captain)

	send(t, h, captain, MsgCaptainAnswer, answerRequest{Text: "  guess  "})
	if _, ok := lastOfType(drain(t, captain), MsgAnswerOK); !ok {
		t.Fatal("no answer_ok for a valid submission")
	}
	msg, ok := lastOfType(drain(t, admin), MsgAnswersUpdate)
	if !ok {
		t.Fatal("host did not receive the live answer")
	}
	var answers answersPayload
	json.Unmarshal(msg.Payload, &answers)
	if answers.QIndex != 0 || len(answers.Answers) != 1 || answers.Answers[0].Text != "guess" {
		t.Fatalf("answers payload = %+v", answers)
	}
}

func TestKickTeamNotifiesCaptain(t *testing.T) {
	h, _ := newTestHub()
	admin := dial(h, RoleAdmin)
	send(t, h, admin, MsgAdminLoadTeams, loadTeamsRequest{Names: []string{"A"}})

	captain := dial(h, RoleCaptain)
	send(t, h, captain, MsgCaptainHello, helloRequest{DeviceID: "dev-1"})
	send(t, h, captain, MsgCaptainPickTeam, teamRequest{TeamID: 1})
	drain(t, captain)

	send(t, h, admin, MsgAdminKickTeam, teamRequest{TeamID: 1})
	if _, ok := lastOfType(drain(t, captain), MsgTeamKicked); !ok {
		t.Fatal("captain was not told about the kick")
	}
	if captain.teamID != 0 {
		t.Fatalf("captain seat not cleared: %d", captain.teamID)
	}
	// Seat is free again.
	if _, ok := h.session.BoundTeam("dev-1"); ok {
		t.Fatal("binding survived the kick")
	}
}

func TestCaptainDisconnectFreesSeatKeepsBinding(t *testing.T) {
	h, _ := newTestHub()
	admin := dial(h, RoleAdmin)
	send(t, h, admin, MsgAdminLoadTeams, loadTeamsRequest{Names: []string{"A"}})

	captain := dial(h, RoleCaptain)
	send(t, h, captain, MsgCaptainHello, helloRequest{DeviceID: "dev-1"})
	send(t, h, captain, MsgCaptainPickTeam, teamRequest{TeamID: 1})

	h.removeConnection(captain)

	if h.session.Teams()[0].ActiveCaptain {
		t.Fatal("seat still marked active after disconnect")
	}
	if team, ok := h.session.BoundTeam("dev-1"); !ok || team != 1 {
		t.Fatal("device binding lost on disconnect")
	}
}

func TestMalformedMessagesDropped(t *testing.T) {
	h, _ := newTestHub()
	admin := dial(h, RoleAdmin)
	captain := dial(h, RoleCaptain)
	drain(t, admin)
	drain(t, captain)

	h.handleMessage(captain, []byte("not json"))
	h.handleMessage(captain, []byte(`{"payload":{}}`))
	h.handleMessage(admin, []byte(`{"type":"admin_mark_answer","payload":"nope"}`))

	if msgs := drain(t, admin); len(msgs) != 0 {
		t.Fatalf("admin received %v", typeList(msgs))
	}
	if msgs := drain(t, captain); len(msgs) != 0 {
		t.Fatalf("captain received %v", typeList(msgs))
	}
}

func TestPlayersCannotDriveTheSession(t *testing.T) {
	h, _ := newTestHub()
	admin := dial(h, RoleAdmin)
	send(t, h, admin, MsgAdminLoadTeams, loadTeamsRequest{Names: []string{"A"}})
	drain(t, admin)

	player := dial(h, RolePlayer)
	drain(t, player)
	send(t, h, player, MsgAdminResetTeams, nil)
	send(t, h, player, MsgCaptainPickTeam, teamRequest{TeamID: 1})

	if len(h.session.Teams()) != 1 {
		t.Fatal("player message mutated the session")
	}
	if msgs := drain(t, player); len(msgs) != 0 {
		t.Fatalf("player received %v", typeList(msgs))
	}
}

func TestTimerMessagesBroadcastToAllRoles(t *testing.T) {
	h, _ := newTestHub()
	admin := dial(h, RoleAdmin)
	player := dial(h, RolePlayer)
	drain(t, admin)
	drain(t, player)

	send(t, h, admin, MsgAdminTimerStart, nil)
	msg, ok := lastOfType(drain(t, player), MsgTimerUpdate)
	if !ok {
		t.Fatal("player missed the timer start")
	}
	var tm game.Timer
	json.Unmarshal(msg.Payload, &tm)
	if !tm.Running || tm.DurationSec != game.DefaultTimerSeconds {
		t.Fatalf("timer payload = %+v", tm)
	}

	// Pause on an idle timer is a no-op and stays silent.
	send(t, h, admin, MsgAdminTimerStop, nil)
	drain(t, admin)
	drain(t, player)
	send(t, h, admin, MsgAdminTimerPause, nil)
	if msgs := drain(t, player); len(msgs) != 0 {
		t.Fatalf("idle pause broadcast %v", typeList(msgs))
	}
}

func TestShowNextFansOutViews(t *testing.T) {
	h, _ := newTestHub()
	admin := dial(h, RoleAdmin)
	player := dial(h, RolePlayer)
	send(t, h, admin, MsgAdminLoadTeams, loadTeamsRequest{Names: []string{"A"}})
	send(t, h, admin, MsgAdminLoadQuestions, loadQuestionsRequest{
		Questions: []game.QuestionImport{{Text: "Q1", Answer: "A1"}},
	})
	drain(t, admin)
	drain(t, player)

	send(t, h, admin, MsgAdminShowNext, nil)

	msg, ok := lastOfType(drain(t, player), MsgShownUpdate)
	if !ok {
		t.Fatal("player missed shown_update")
	}
	var shown game.Shown
	json.Unmarshal(msg.Payload, &shown)
	if shown.Phase != game.PhaseQuestion || shown.QIndex != 0 {
		t.Fatalf("shown = %+v", shown)
	}

	adminMsgs := drain(t, admin)
	if _, ok := lastOfType(adminMsgs, MsgAdminState); !ok {
		t.Fatalf("host missed admin_state, got %v", typeList(adminMsgs))
	}
	if _, ok := lastOfType(adminMsgs, MsgAnswersUpdate); !ok {
		t.Fatal("host missed answers_update")
	}
}

func TestCommitBroadcastsScores(t *testing.T) {
	h, _ := newTestHub()
	admin := dial(h, RoleAdmin)
	player := dial(h, RolePlayer)
	send(t, h, admin, MsgAdminLoadTeams, loadTeamsRequest{Names: []string{"A", "B"}})
	send(t, h, admin, MsgAdminLoadQuestions, loadQuestionsRequest{
		Questions: []game.QuestionImport{{Text: "Q1"}},
	})
	send(t, h, admin, MsgAdminShowNext, nil)
	yes := true
	send(t, h, admin, MsgAdminMarkAnswer, markAnswerRequest{QIndex: 0, TeamID: 1, Verdict: &yes})
	drain(t, admin)
	drain(t, player)

	send(t, h, admin, MsgAdminCommitCurrent, nil)

	msg, ok := lastOfType(drain(t, admin), MsgScoresFull)
	if !ok {
		t.Fatal("host missed scores_full")
	}
	var table game.ScoreTable
	json.Unmarshal(msg.Payload, &table)
	if table.Rows[0].Total != 1 {
		t.Fatalf("leader total = %d, want 1", table.Rows[0].Total)
	}
	if _, ok := lastOfType(drain(t, player), MsgBreakTable); !ok {
		t.Fatal("shared screens missed break_table")
	}
}

func TestOversizeImageRejected(t *testing.T) {
	h, _ := newTestHub()
	h.cfg.MaxImageBytes = 16
	admin := dial(h, RoleAdmin)
	send(t, h, admin, MsgAdminLoadQuestions, loadQuestionsRequest{
		Questions: []game.QuestionImport{{Text: "Q1"}},
	})
	drain(t, admin)

	send(t, h, admin, MsgAdminSetImage, imageRequest{
		Index:   0,
		Field:   game.ImageFieldHandout,
		DataURL: "data:image/png;base64,AAAAAAAAAAAAAAAAAAAAAAAAAAAA",
	})
	if _, ok := lastOfType(drain(t, admin), MsgAdminError); !ok {
		t.Fatal("oversize image was accepted")
	}
}

func TestExportTeamsDeliversWorkbook(t *testing.T) {
	h, _ := newTestHub()
	admin := dial(h, RoleAdmin)
	send(t, h, admin, MsgAdminLoadTeams, loadTeamsRequest{Names: []string{"A"}})
	drain(t, admin)

	send(t, h, admin, MsgAdminExportTeams, nil)
	msg, ok := lastOfType(drain(t, admin), MsgAdminFile)
	if !ok {
		t.Fatal("no admin_file reply")
	}
	var file filePayload
	json.Unmarshal(msg.Payload, &file)
	if file.Filename != "teams.xlsx" {
		t.Fatalf("filename = %q", file.Filename)
	}
	if _, err := base64.StdEncoding.DecodeString(file.Base64); err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
}

func TestRunBroadcastsCountdown(t *testing.T) {
	h, clock := newTestHub()
	player := dial(h, RolePlayer)
	drain(t, player)
	h.session.StartTimer(game.DefaultTimerSeconds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	clock.BlockUntil(1) // poll ticker armed
	clock.Advance(time.Second)

	select {
	case raw := <-player.send:
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatal(err)
		}
		if env.Type != MsgTimerUpdate {
			t.Fatalf("got %s, want timer_update", env.Type)
		}
		var tm game.Timer
		json.Unmarshal(env.Payload, &tm)
		if tm.RemainingSec != game.DefaultTimerSeconds-1 {
			t.Fatalf("remaining = %d, want %d", tm.RemainingSec, game.DefaultTimerSeconds-1)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no countdown broadcast after a tick")
	}
}
