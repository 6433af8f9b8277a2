package catalog

import "VinylShop/model"

// State is an immutable snapshot of the catalog view. Reduce never modifies a State it is given.
type State struct {
	AllAlbums      []model.Album `json:"allAlbums"`
	FilteredAlbums []model.Album `json:"filteredAlbums"`
	Query          string        `json:"query"`
}

// Action is one of LoadAlbums, ChangeQuery or FilterAlbums.
type Action interface {
	isAction()
}

// LoadAlbums replaces the catalog and re-applies the current query.
type LoadAlbums struct {
	Albums []model.Album
}

// ChangeQuery filters the catalog by a new query, typically one per keystroke.
type ChangeQuery struct {
	Query string
}

// FilterAlbums sets the filtered list directly, bypassing the query.
type FilterAlbums struct {
	Albums []model.Album
}

func (LoadAlbums) isAction()   {}
func (ChangeQuery) isAction()  {}
func (FilterAlbums) isAction() {}

// Reduce returns the state that follows s after a. Unknown actions return s unchanged.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case LoadAlbums:
		all := clone(act.Albums)
		return State{
			AllAlbums:      all,
			FilteredAlbums: Filter(all, s.Query),
			Query:          s.Query,
		}
	case ChangeQuery:
		return State{
			AllAlbums:      s.AllAlbums,
			FilteredAlbums: Filter(s.AllAlbums, act.Query),
			Query:          act.Query,
		}
	case FilterAlbums:
		return State{
			AllAlbums:      s.AllAlbums,
			FilteredAlbums: clone(act.Albums),
			Query:          s.Query,
		}
	default:
		return s
	}
}

func clone(albums []model.Album) []model.Album {
	out := make([]model.Album, len(albums))
	copy(out, albums)
	return out
}
