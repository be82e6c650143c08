package service_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	service "github.com/repentdaily/rating/internal/app"
	"github.com/repentdaily/rating/internal/domain/model"
	"github.com/repentdaily/rating/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with full integration", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithRandomSeed(42),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When many clients submit mixed completions concurrently", func() {
			const (
				clients   = 8
				perClient = 500
				users     = 40
			)
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				expected = make(map[string][2]int) // wins, losses
			)
			for c := 0; c < clients; c++ {
				wg.Add(1)
				go func(c int) {
					defer wg.Done()
					rng := rand.New(rand.NewPCG(uint64(c), 99))
					for i := 0; i < perClient; i++ {
						user := fmt.Sprintf("user-%d", rng.IntN(users))
						kind := rating.KindTodo
						if rng.IntN(2) == 0 {
							kind = rating.KindHabit
						}
						win := rng.IntN(4) != 0
						_, err := svc.Submit(ctx, model.CompletionEvent{
							EventID:     fmt.Sprintf("c%d-%d", c, i),
							UserID:      user,
							Kind:        kind,
							Completed:   win,
							HabitStreak: rng.IntN(30),
						})
						if err != nil {
							continue
						}
						mu.Lock()
						counts := expected[user]
						if win {
							counts[0]++
						} else {
							counts[1]++
						}
						expected[user] = counts
						mu.Unlock()
					}
				}(c)
			}
			wg.Wait()

			var accepted int64
			for _, c := range expected {
				accepted += int64(c[0] + c[1])
			}
			So(waitProcessed(svc, accepted), ShouldBeTrue)

			Convey("Then every record has the expected totals and a consistent rank", func() {
				for user, counts := range expected {
					view, err := svc.Record(ctx, user)
					So(err, ShouldBeNil)
					So(view.TotalWins, ShouldEqual, counts[0])
					So(view.TotalLosses, ShouldEqual, counts[1])
					So(view.Rating, ShouldBeGreaterThanOrEqualTo, 0)
					So(view.Rank, ShouldEqual, rating.ClassifyRank(view.Rating))
					So(view.BestWinStreak, ShouldBeGreaterThanOrEqualTo, view.WinStreak)
				}
			})

			Convey("And the leaderboard is ordered with matching positions", func() {
				entries, err := svc.Leaderboard(ctx, users)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, len(expected))
				for i := 1; i < len(entries); i++ {
					So(entries[i-1].Rating, ShouldBeGreaterThanOrEqualTo, entries[i].Rating)
				}
				for _, e := range entries {
					view, err := svc.Record(ctx, e.UserID)
					So(err, ShouldBeNil)
					So(view.Position, ShouldEqual, e.Position)
					So(view.Rating, ShouldEqual, e.Rating)
				}
			})

			Convey("And nothing failed", func() {
				So(svc.GetStats()["failed"], ShouldEqual, int64(0))
			})
		})

		Convey("When the same completion is replayed from many goroutines", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for g := 0; g < 16; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					r, err := svc.Submit(ctx, model.CompletionEvent{EventID: "once", UserID: "zoe", Kind: rating.KindTodo, Completed: true})
					if err == nil && !r.Duplicate {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			So(waitProcessed(svc, 1), ShouldBeTrue)

			Convey("Then it is applied exactly once", func() {
				So(fresh, ShouldEqual, 1)
				view, err := svc.Record(ctx, "zoe")
				So(err, ShouldBeNil)
				So(view.Rating, ShouldEqual, 1001)
				So(view.TotalWins, ShouldEqual, 1)
			})
		})
	})
}

func TestServiceStopDrains(t *testing.T) {
	Convey("Given a service with queued completions", t, func() {
		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(1000))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		for i := 0; i < 500; i++ {
			_, err := svc.Submit(ctx, model.CompletionEvent{UserID: "drain", Kind: rating.KindTodo, Completed: true})
			So(err, ShouldBeNil)
		}

		Convey("When the service stops", func() {
			svc.Stop()

			Convey("Then every accepted completion was processed", func() {
				st := svc.GetStats()
				So(st["started"], ShouldEqual, false)
				So(st["processed"], ShouldEqual, int64(500))
			})
		})
	})
}
