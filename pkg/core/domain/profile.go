package domain

// Profile is the owner view: everything but the password hash, every link
// by order and every place newest first.
type Profile struct {
	User
	Links  []Link  `json:"links"`
	Places []Place `json:"places"`
}

// PublicProfile is what anyone can read by username: no email, hidden links dropped.
type PublicProfile struct {
	PublicUser
	Links  []Link  `json:"links"`
	Places []Place `json:"places"`
}

// FindLink returns the link with the given id, if present.
func (p *Profile) FindLink(id string) (Link, bool) {
	for _, l := range p.Links {
		if l.ID == id {
			return l, true
		}
	}
	return Link{}, false
}

func (p *Profile) FindPlace(id string) (Place, bool) {
	for _, pl := range p.Places {
		if pl.ID == id {
			return pl, true
		}
	}
	return Place{}, false
}
