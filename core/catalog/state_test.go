package catalog

import (
	"sync"
	"testing"

	"VinylShop/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce_LoadAlbumsKeepsQuery(t *testing.T) {
	s := State{Query: "Bad"}

	next := Reduce(s, LoadAlbums{Albums: sampleAlbums()})

	assert.Len(t, next.AllAlbums, 5)
	assert.Equal(t, []uint64{2, 3}, ids(next.FilteredAlbums))
	assert.Equal(t, "Bad", next.Query)
	assert.Nil(t, s.AllAlbums, "input state must not change")
}

func TestReduce_ChangeQuery(t *testing.T) {
	s := Reduce(State{}, LoadAlbums{Albums: sampleAlbums()})

	typed := ""
	for _, ch := range "Bad" {
		typed += string(ch)
		s = Reduce(s, ChangeQuery{Query: typed})
	}

	assert.Equal(t, "Bad", s.Query)
	assert.Equal(t, []uint64{2, 3}, ids(s.FilteredAlbums))

	s = Reduce(s, ChangeQuery{Query: ""})
	assert.Equal(t, ids(s.AllAlbums), ids(s.FilteredAlbums))
}

func TestReduce_FilterAlbums(t *testing.T) {
	s := Reduce(State{Query: "x"}, LoadAlbums{Albums: sampleAlbums()})
	picked := []model.Album{{ID: 9, Title: "Picked"}}

	next := Reduce(s, FilterAlbums{Albums: picked})
	picked[0].Title = "mutated"

	assert.Equal(t, "x", next.Query)
	assert.Equal(t, "Picked", next.FilteredAlbums[0].Title)
	assert.Len(t, next.AllAlbums, 5)
}

func TestReduce_LoadAlbumsCopiesInput(t *testing.T) {
	albums := sampleAlbums()
	s := Reduce(State{}, LoadAlbums{Albums: albums})
	albums[0].Title = "mutated"

	assert.Equal(t, "No Strings Attached", s.AllAlbums[0].Title)
}

type unknownAction struct{}

func (unknownAction) isAction() {}

func TestReduce_UnknownAction(t *testing.T) {
	s := State{Query: "q"}
	assert.Equal(t, s, Reduce(s, unknownAction{}))
}

func TestStore_DispatchNotifiesSubscribers(t *testing.T) {
	store := NewStore(State{})

	var got []State
	unsubscribe := store.Subscribe(func(s State) { got = append(got, s) })

	store.Dispatch(LoadAlbums{Albums: sampleAlbums()})
	store.Dispatch(ChangeQuery{Query: "No"})

	require.Len(t, got, 2)
	assert.Equal(t, []uint64{1}, ids(got[1].FilteredAlbums))
	assert.Equal(t, got[1], store.State())

	unsubscribe()
	store.Dispatch(ChangeQuery{Query: ""})
	assert.Len(t, got, 2)
}

func TestStore_SubscriberMayReadState(t *testing.T) {
	store := NewStore(State{})
	var seen string
	store.Subscribe(func(State) { seen = store.State().Query })

	store.Dispatch(ChangeQuery{Query: "abc"})

	assert.Equal(t, "abc", seen)
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	store := NewStore(Reduce(State{}, LoadAlbums{Albums: sampleAlbums()}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			store.Dispatch(ChangeQuery{Query: q})
			_ = store.State()
		}([]string{"Bad", "No", ""}[i%3])
	}
	wg.Wait()

	s := store.State()
	assert.Equal(t, Filter(s.AllAlbums, s.Query), s.FilteredAlbums)
}
