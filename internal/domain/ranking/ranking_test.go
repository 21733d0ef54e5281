package ranking_test

import (
	"fmt"
	"testing"

	"github.com/okian/recordbook/internal/domain/ranking"
	"github.com/okian/recordbook/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func row(key string, value, tiebreak float64) types.Row {
	return types.Row{Key: key, Entities: []string{key}, Value: value, Tiebreak: tiebreak}
}

func keys(entries []ranking.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Row.Key
	}
	return out
}

func TestRank(t *testing.T) {
	names := map[string]string{"a": "Zed", "b": "Amy", "c": "Bob", "d": "Cal"}

	Convey("Given rows ranked by value descending, then tiebreak, then name", t, func() {
		order := ranking.Order{Value: ranking.Descending, Tiebreak: ranking.Descending, ByName: true}
		rows := []types.Row{row("a", 3, 2003), row("b", 3, 2003), row("c", 3, 2010), row("d", 5, 1999)}

		Convey("When ranking all of them", func() {
			out := ranking.Rank(rows, order, names, 10)

			Convey("Then the chain decides the order", func() {
				So(keys(out), ShouldResemble, []string{"d", "c", "b", "a"})
			})

			Convey("Then equal primary values share a competition rank", func() {
				So(out[0].Rank, ShouldEqual, 1)
				So(out[1].Rank, ShouldEqual, 2)
				So(out[2].Rank, ShouldEqual, 2)
				So(out[3].Rank, ShouldEqual, 2)
			})
		})

		Convey("When truncating", func() {
			out := ranking.Rank(rows, order, names, 2)

			Convey("Then only the best rows remain", func() {
				So(keys(out), ShouldResemble, []string{"d", "c"})
			})
		})
	})

	Convey("Given an ascending order without names", t, func() {
		order := ranking.Order{Value: ranking.Ascending}
		rows := []types.Row{row("b", 21.3, 0), row("a", 21.3, 0), row("c", 19.5, 0)}

		Convey("Then the row key closes the chain", func() {
			So(keys(ranking.Rank(rows, order, nil, 10)), ShouldResemble, []string{"c", "a", "b"})
		})
	})

	Convey("Given the same rows in any insertion order", t, func() {
		order := ranking.Order{Value: ranking.Descending, ByName: true}
		var forward, backward []types.Row
		for i := range 50 {
			forward = append(forward, row(fmt.Sprintf("p%02d", i), float64(i%7), 0))
		}
		for i := len(forward) - 1; i >= 0; i-- {
			backward = append(backward, forward[i])
		}

		Convey("Then the ranking is identical", func() {
			So(keys(ranking.Rank(forward, order, nil, 50)), ShouldResemble, keys(ranking.Rank(backward, order, nil, 50)))
		})
	})
}

func TestLimit(t *testing.T) {
	Convey("Given requested limits", t, func() {
		Convey("Zero uses the default", func() {
			n, err := ranking.Limit(0, ranking.DefaultTop, ranking.MaxTop)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 100)
		})

		Convey("Large values are capped", func() {
			n, err := ranking.Limit(10_000, ranking.DefaultTop, ranking.MaxTop)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 500)
		})

		Convey("Negative values are rejected", func() {
			_, err := ranking.Limit(-1, ranking.DefaultTop, ranking.MaxTop)
			So(err, ShouldEqual, ranking.ErrInvalidLimit)
		})
	})
}
