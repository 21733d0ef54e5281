package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/okian/recordbook/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestMatchEvent(t *testing.T) {
	convey.Convey("Given a match event", t, func() {
		day := time.Date(2008, 7, 6, 0, 0, 0, 0, time.UTC)
		m := model.MatchEvent{
			ID:           "m1",
			TournamentID: "2008-540",
			Date:         day,
			Round:        model.RoundFinal,
			Level:        model.LevelGrandSlam,
			Winner:       model.Participant{ID: "rn"},
			Loser:        model.Participant{ID: "rf"},
		}

		convey.Convey("Then slots resolve by side", func() {
			convey.So(m.Player(model.SideWinner).ID, convey.ShouldEqual, "rn")
			convey.So(m.Player(model.SideLoser).ID, convey.ShouldEqual, "rf")
			convey.So(m.Opponent(model.SideWinner).ID, convey.ShouldEqual, "rf")
			convey.So(m.Opponent(model.SideLoser).ID, convey.ShouldEqual, "rn")
		})

		convey.Convey("Then a final outside team events is a title", func() {
			convey.So(m.IsTitle(), convey.ShouldBeTrue)
			m.Level = model.LevelTeam
			convey.So(m.IsTitle(), convey.ShouldBeFalse)
		})

		convey.Convey("Then walkovers are not played and retirements are not complete", func() {
			convey.So(m.Played(), convey.ShouldBeTrue)
			convey.So(m.Complete(), convey.ShouldBeTrue)
			m.Outcome = model.OutcomeRetired
			convey.So(m.Played(), convey.ShouldBeTrue)
			convey.So(m.Complete(), convey.ShouldBeFalse)
			m.Outcome = model.OutcomeWalkover
			convey.So(m.Played(), convey.ShouldBeFalse)
		})

		convey.Convey("When ordering matches of the same day", func() {
			semi := m
			semi.ID = "m0"
			semi.Round = model.RoundSF

			convey.Convey("Then earlier rounds come first", func() {
				convey.So(semi.Before(&m), convey.ShouldBeTrue)
				convey.So(m.Before(&semi), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the outcome is encoded as JSON", func() {
			m.Outcome = model.OutcomeRetired
			b, err := json.Marshal(m)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldContainSubstring, `"outcome":"retired"`)

			var back model.MatchEvent
			convey.So(json.Unmarshal(b, &back), convey.ShouldBeNil)
			convey.So(back.Outcome, convey.ShouldEqual, model.OutcomeRetired)
		})
	})
}

func TestDimensions(t *testing.T) {
	convey.Convey("Given raw dimension values", t, func() {
		convey.Convey("Then surfaces are matched case-insensitively", func() {
			s, ok := model.ParseSurface(" clay ")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(s, convey.ShouldEqual, model.SurfaceClay)
			_, ok = model.ParseSurface("ice")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then levels and rounds are canonicalized", func() {
			l, ok := model.ParseLevel("g")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(l, convey.ShouldEqual, model.LevelGrandSlam)
			r, ok := model.ParseRound("qf")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(r, convey.ShouldEqual, model.RoundQF)
		})

		convey.Convey("Then round order follows the draw", func() {
			convey.So(model.RoundR16.Order(), convey.ShouldBeLessThan, model.RoundQF.Order())
			convey.So(model.RoundSF.Order(), convey.ShouldBeLessThan, model.RoundFinal.Order())
			convey.So(model.Round("X").Order(), convey.ShouldEqual, -1)
		})
	})
}
