package crm

// UserRef is the shallow projection of a user attached to other records.
type UserRef struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// OrganizationRef is the shallow projection of an organization.
type OrganizationRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ContactRef is the shallow projection of a contact.
type ContactRef struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

// DealRef is the shallow projection of a deal.
type DealRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// NewOrganizationRef builds a ref from LEFT JOIN columns; nil id means no row.
func NewOrganizationRef(id *int64, name *string) *OrganizationRef {
	if id == nil {
		return nil
	}
	ref := &OrganizationRef{ID: *id}
	if name != nil {
		ref.Name = *name
	}
	return ref
}

// NewContactRef builds a ref from LEFT JOIN columns.
func NewContactRef(id *int64, first, last, email *string) *ContactRef {
	if id == nil {
		return nil
	}
	ref := &ContactRef{ID: *id}
	if email != nil {
		ref.Email = *email
	}
	if first != nil {
		ref.FirstName = *first
	}
	if last != nil {
		ref.LastName = *last
	}
	return ref
}

// NewDealRef builds a ref from LEFT JOIN columns.
func NewDealRef(id *int64, title *string) *DealRef {
	if id == nil {
		return nil
	}
	ref := &DealRef{ID: *id}
	if title != nil {
		ref.Title = *title
	}
	return ref
}

// NewUserRef builds a ref from LEFT JOIN columns.
func NewUserRef(id *int64, first, last *string) *UserRef {
	if id == nil {
		return nil
	}
	ref := &UserRef{ID: *id}
	if first != nil {
		ref.FirstName = *first
	}
	if last != nil {
		ref.LastName = *last
	}
	return ref
}
