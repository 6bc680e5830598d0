package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"auctions/internal/auctionerrors"
	"auctions/internal/auth"
	"auctions/internal/domain"
	"auctions/internal/events"
	"auctions/internal/money"
	"auctions/internal/repos"
	"auctions/internal/services"

	"github.com/golang/mock/gomock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

type env struct {
	db       *sqlx.DB
	auth     *services.AuthService
	listings *services.ListingService
	bids     *services.BidService
	watch    *services.WatchlistService
	comments *services.CommentService
}

func newEnv(t *testing.T, pub events.Publisher) *env {
	t.Helper()
	db, err := repos.OpenDB(context.Background(), repos.Options{Driver: repos.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	lr := repos.NewListingRepo(db)
	return &env{
		db:       db,
		auth:     services.NewAuthService(repos.NewUserRepo(db), auth.NewTokens("test-secret", 0)),
		listings: services.NewListingService(lr, repos.NewCategoryRepo(db), pub),
		bids:     services.NewBidService(repos.NewBidRepo(db), lr, pub),
		watch:    services.NewWatchlistService(repos.NewWatchRepo(db), lr),
		comments: services.NewCommentService(repos.NewCommentRepo(db), lr),
	}
}

func (e *env) user(t *testing.T, name string) domain.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), services.Registration{
		Username: name, Email: name + "@example.test", Password: "Passw0rd!", Confirmation: "Passw0rd!",
	})
	require.NoError(t, err)
	return u
}

func (e *env) listing(t *testing.T, owner domain.User, price string) domain.Listing {
	t.Helper()
	l, err := e.listings.Create(context.Background(), domain.NewListing{
		OwnerID:       owner.ID,
		Title:         "Bike",
		Description:   "Road bike, 56cm",
		StartingPrice: money.MustParse(price),
		ImageURL:      "https://img.example/bike.jpg",
		Category:      "Sporting Goods",
	})
	require.NoError(t, err)
	return l
}

type eventType string

func (m eventType) Matches(x interface{}) bool {
	e, ok := x.(events.Event)
	return ok && e.Type == string(m)
}

func (m eventType) String() string { return "event of type " + string(m) }

func TestCreateListingRoundTrip(t *testing.T) {
	e := newEnv(t, events.Nop{})
	ctx := context.Background()
	owner := e.user(t, "alice")

	created, err := e.listings.Create(ctx, domain.NewListing{
		OwnerID:       owner.ID,
		Title:         "  Dune ",
		Description:   "Paperback",
		StartingPrice: money.MustParse("9.99"),
		ImageURL:      "https://img.example/dune.jpg",
		Category:      "Books",
	})
	require.NoError(t, err)

	got, err := e.listings.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Dune", got.Title)
	require.Equal(t, "Paperback", got.Description)
	require.Equal(t, "9.99", got.CurrentPrice.String())
	require.Equal(t, "https://img.example/dune.jpg", got.ImageURL)
	require.Equal(t, "Books", got.Category)
	require.Equal(t, owner.ID, got.OwnerID)
	require.Equal(t, domain.StatusActive, got.Status)
	require.False(t, got.IsClosed())
	require.Nil(t, got.WinnerID)
}

func TestCreateListingValidation(t *testing.T) {
	e := newEnv(t, events.Nop{})
	owner := e.user(t, "alice")
	base := domain.NewListing{
		OwnerID: owner.ID, Title: "Bike", Description: "d", StartingPrice: money.MustParse("1.00"),
		ImageURL: "https://img.example/b.jpg", Category: "Tools",
	}

	cases := []struct {
		name string
		mut  func(*domain.NewListing)
		want error
	}{
		{"empty title", func(n *domain.NewListing) { n.Title = " " }, auctionerrors.ErrInvalid},
		{"empty description", func(n *domain.NewListing) { n.Description = "" }, auctionerrors.ErrInvalid},
		{"bad image", func(n *domain.NewListing) { n.ImageURL = "not a url" }, auctionerrors.ErrInvalid},
		{"negative price", func(n *domain.NewListing) { n.StartingPrice = money.MustParse("-0.01") }, auctionerrors.ErrInvalid},
		{"unknown category", func(n *domain.NewListing) { n.Category = "Cars" }, auctionerrors.ErrUnknownCategory},
		{"anonymous", func(n *domain.NewListing) { n.OwnerID = "" }, auctionerrors.ErrUnauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mut(&in)
			_, err := e.listings.Create(context.Background(), in)
			require.ErrorIs(t, err, tc.want)
		})
	}

	free := base
	free.StartingPrice = money.Zero
	l, err := e.listings.Create(context.Background(), free)
	require.NoError(t, err)
	require.Equal(t, "0.00", l.CurrentPrice.String())
}

func TestCloseWithoutBidsLeavesWinnerUnset(t *testing.T) {
	e := newEnv(t, events.Nop{})
	owner := e.user(t, "alice")
	l := e.listing(t, owner, "5.00")

	closed, err := e.listings.Close(context.Background(), l.ID, owner.ID)
	require.NoError(t, err)
	require.True(t, closed.IsClosed())
	require.Nil(t, closed.WinnerID)
}

func TestCloseByNonOwner(t *testing.T) {
	e := newEnv(t, events.Nop{})
	owner := e.user(t, "alice")
	other := e.user(t, "bob")
	l := e.listing(t, owner, "5.00")

	_, err := e.listings.Close(context.Background(), l.ID, other.ID)
	require.ErrorIs(t, err, auctionerrors.ErrForbidden)
	_, err = e.listings.Close(context.Background(), l.ID, "")
	require.ErrorIs(t, err, auctionerrors.ErrUnauthenticated)
}

func TestAcceptedBidsStrictlyIncreasePrice(t *testing.T) {
	e := newEnv(t, events.Nop{})
	ctx := context.Background()
	owner := e.user(t, "alice")
	bidder := e.user(t, "bob")
	l := e.listing(t, owner, "1.00")

	prev := money.MustParse("1.00")
	for _, amt := range []string{"1.01", "2.00", "2.50", "99.99"} {
		b, err := e.bids.Place(ctx, l.ID, bidder.ID, money.MustParse(amt))
		require.NoError(t, err)

		got, err := e.listings.Get(ctx, l.ID)
		require.NoError(t, err)
		require.True(t, got.CurrentPrice.Equal(b.Amount))
		require.True(t, got.CurrentPrice.GreaterThan(prev))
		prev = got.CurrentPrice
	}
}

func TestBidTooLowDoesNotMutate(t *testing.T) {
	e := newEnv(t, events.Nop{})
	ctx := context.Background()
	owner := e.user(t, "alice")
	bidder := e.user(t, "bob")
	l := e.listing(t, owner, "10.00")

	for _, amt := range []money.Amount{money.MustParse("10.00"), money.MustParse("9.99"), money.Zero} {
		_, err := e.bids.Place(ctx, l.ID, bidder.ID, amt)
		require.ErrorIs(t, err, auctionerrors.ErrBidTooLow)
	}

	got, err := e.listings.Get(ctx, l.ID)
	require.NoError(t, err)
	require.Equal(t, "10.00", got.CurrentPrice.String())
	bids, err := e.bids.List(ctx, l.ID)
	require.NoError(t, err)
	require.Empty(t, bids)

	_, err = e.bids.Place(ctx, 12345, bidder.ID, money.Zero)
	require.ErrorIs(t, err, auctionerrors.ErrNotFound)
}

func TestLargestBidIsStoredExactly(t *testing.T) {
	e := newEnv(t, events.Nop{})
	ctx := context.Background()
	owner := e.user(t, "alice")
	bidder := e.user(t, "bob")
	l := e.listing(t, owner, "999999999.98")

	b, err := e.bids.Place(ctx, l.ID, bidder.ID, money.Max)
	require.NoError(t, err)
	require.True(t, b.Amount.Equal(money.Max))

	_, err = money.Parse("184467440737095517.17")
	require.ErrorIs(t, err, money.ErrOutOfRange)

	got, err := e.listings.Get(ctx, l.ID)
	require.NoError(t, err)
	require.Equal(t, "999999999.99", got.CurrentPrice.String())
	bids, err := e.bids.List(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	require.True(t, bids[0].Amount.Equal(money.Max))
}

func TestOwnerMayBidOnOwnListing(t *testing.T) {
	e := newEnv(t, events.Nop{})
	owner := e.user(t, "alice")
	l := e.listing(t, owner, "10.00")

	_, err := e.bids.Place(context.Background(), l.ID, owner.ID, money.MustParse("11.00"))
	require.NoError(t, err)
}

func TestCloseSelectsMaximumBid(t *testing.T) {
	e := newEnv(t, events.Nop{})
	ctx := context.Background()
	owner := e.user(t, "alice")
	b1 := e.user(t, "bob")
	b2 := e.user(t, "carol")
	b3 := e.user(t, "dave")
	l := e.listing(t, owner, "1.00")

	_, err := e.bids.Place(ctx, l.ID, b1.ID, money.MustParse("10.00"))
	require.NoError(t, err)
	_, err = e.bids.Place(ctx, l.ID, b2.ID, money.MustParse("25.50"))
	require.NoError(t, err)
	// 18.00 is under the running price, so the engine refuses it
	_, err = e.bids.Place(ctx, l.ID, b3.ID, money.MustParse("18.00"))
	require.ErrorIs(t, err, auctionerrors.ErrBidTooLow)

	closed, err := e.listings.Close(ctx, l.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, b2.ID, *closed.WinnerID)

	_, err = e.bids.Place(ctx, l.ID, b3.ID, money.MustParse("30.00"))
	require.ErrorIs(t, err, auctionerrors.ErrListingClosed)
}

func TestConcurrentBidsKeepHighestPrice(t *testing.T) {
	for i := 0; i < 10; i++ {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			e := newEnv(t, events.Nop{})
			ctx := context.Background()
			owner := e.user(t, "alice")
			b1 := e.user(t, "bob")
			b2 := e.user(t, "carol")
			l := e.listing(t, owner, "40.00")

			var wg sync.WaitGroup
			errs := make([]error, 2)
			amounts := []string{"50.00", "60.00"}
			bidders := []string{b1.ID, b2.ID}
			for i := range amounts {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = e.bids.Place(ctx, l.ID, bidders[i], money.MustParse(amounts[i]))
				}(i)
			}
			wg.Wait()

			require.NoError(t, errs[1])
			if errs[0] != nil {
				require.ErrorIs(t, errs[0], auctionerrors.ErrBidTooLow)
			}

			got, err := e.listings.Get(ctx, l.ID)
			require.NoError(t, err)
			require.Equal(t, "60.00", got.CurrentPrice.String())

			bids, err := e.bids.List(ctx, l.ID)
			require.NoError(t, err)
			accepted := 1
			if errs[0] == nil {
				accepted = 2
			}
			require.Len(t, bids, accepted)
			require.Equal(t, "60.00", bids[len(bids)-1].Amount.String())
		})
	}
}

func TestWatchlistRoundTrip(t *testing.T) {
	e := newEnv(t, events.Nop{})
	ctx := context.Background()
	owner := e.user(t, "alice")
	u := e.user(t, "bob")
	a := e.listing(t, owner, "1.00")
	b := e.listing(t, owner, "2.00")

	_, err := e.watch.Add(ctx, u.ID, b.ID)
	require.NoError(t, err)
	_, err = e.watch.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)

	ok, err := e.watch.IsWatching(ctx, u.ID, a.ID)
	require.NoError(t, err)
	require.True(t, ok)

	var got []int64
	for l, err := range e.watch.Watched(ctx, u.ID) {
		require.NoError(t, err)
		got = append(got, l.ID)
	}
	require.Equal(t, []int64{b.ID, a.ID}, got)

	_, err = e.watch.Remove(ctx, u.ID, a.ID)
	require.NoError(t, err)
	ok, err = e.watch.IsWatching(ctx, u.ID, a.ID)
	require.NoError(t, err)
	require.False(t, ok)

	removed, err := e.watch.Remove(ctx, u.ID, a.ID)
	require.NoError(t, err)
	require.False(t, removed)

	_, err = e.watch.Add(ctx, u.ID, 999)
	require.ErrorIs(t, err, auctionerrors.ErrNotFound)

	ok, err = e.watch.IsWatching(ctx, "", b.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestComments(t *testing.T) {
	e := newEnv(t, events.Nop{})
	ctx := context.Background()
	owner := e.user(t, "alice")
	l := e.listing(t, owner, "1.00")

	_, err := e.comments.Add(ctx, l.ID, owner.ID, "is it still available?")
	require.NoError(t, err)
	_, err = e.comments.Add(ctx, l.ID, owner.ID, "")
	require.NoError(t, err)

	list, err := e.comments.List(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "is it still available?", list[0].Text)

	_, err = e.comments.Add(ctx, 999, owner.ID, "x")
	require.ErrorIs(t, err, auctionerrors.ErrNotFound)
	_, err = e.comments.List(ctx, 999)
	require.ErrorIs(t, err, auctionerrors.ErrNotFound)
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := events.NewMockPublisher(ctrl)
	e := newEnv(t, pub)
	ctx := context.Background()
	owner := e.user(t, "alice")
	bidder := e.user(t, "bob")

	gomock.InOrder(
		pub.EXPECT().Publish(gomock.Any(), eventType(events.TypeListingCreated)).Return(nil),
		pub.EXPECT().Publish(gomock.Any(), eventType(events.TypeBidPlaced)).Return(errors.New("nats down")),
		pub.EXPECT().Publish(gomock.Any(), eventType(events.TypeListingClosed)).
			DoAndReturn(func(_ context.Context, ev events.Event) error {
				require.Equal(t, bidder.ID, ev.UserID)
				require.Equal(t, "12.00", ev.Amount)
				return nil
			}),
	)

	l := e.listing(t, owner, "10.00")
	// a failed publish does not fail the bid
	_, err := e.bids.Place(ctx, l.ID, bidder.ID, money.MustParse("12.00"))
	require.NoError(t, err)
	// rejected bids publish nothing
	_, err = e.bids.Place(ctx, l.ID, bidder.ID, money.MustParse("11.00"))
	require.ErrorIs(t, err, auctionerrors.ErrBidTooLow)

	_, err = e.listings.Close(ctx, l.ID, owner.ID)
	require.NoError(t, err)
	// second close is a no-op and publishes nothing
	_, err = e.listings.Close(ctx, l.ID, owner.ID)
	require.NoError(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t, events.Nop{})
	ctx := context.Background()

	u, err := e.auth.Register(ctx, services.Registration{
		Username: "alice", Email: "Alice@Example.test", Password: "Passw0rd!", Confirmation: "Passw0rd!",
	})
	require.NoError(t, err)
	require.Equal(t, "alice@example.test", u.Email)
	require.NotEqual(t, "Passw0rd!", u.Hash)

	_, err = e.auth.Register(ctx, services.Registration{
		Username: "alice", Email: "a2@example.test", Password: "Passw0rd!", Confirmation: "Passw0rd!",
	})
	require.ErrorIs(t, err, auctionerrors.ErrUsernameTaken)

	_, err = e.auth.Register(ctx, services.Registration{
		Username: "bob", Email: "b@example.test", Password: "Passw0rd!", Confirmation: "different1",
	})
	require.ErrorIs(t, err, auctionerrors.ErrInvalid)

	_, _, err = e.auth.Login(ctx, "sid-1", "alice", "wrong-pass")
	require.ErrorIs(t, err, auctionerrors.ErrBadCredentials)
	_, _, err = e.auth.Login(ctx, "sid-1", "nobody", "Passw0rd!")
	require.ErrorIs(t, err, auctionerrors.ErrBadCredentials)

	logged, token, err := e.auth.Login(ctx, "sid-1", "alice", "Passw0rd!")
	require.NoError(t, err)
	require.Equal(t, u.ID, logged.ID)
	require.NotEmpty(t, token)

	cur, err := e.auth.CurrentUser(ctx, "sid-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, cur.ID)

	fromToken, err := e.auth.UserFromToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, u.ID, fromToken.ID)
	_, err = e.auth.UserFromToken(ctx, token+"x")
	require.ErrorIs(t, err, auctionerrors.ErrUnauthenticated)

	require.NoError(t, e.auth.Logout(ctx, "sid-1"))
	_, err = e.auth.CurrentUser(ctx, "sid-1")
	require.ErrorIs(t, err, auctionerrors.ErrUnauthenticated)
}
