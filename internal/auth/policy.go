package auth

import "github.com/joao-fontenele/storefront/internal/domain"

// Access policy. Catalog reads are public and not checked here; every
// other decision is ownership-scoped with an administrative override
// where noted.

// CanMutateCatalog reports whether the actor may create, update, or
// delete collections, products, images, or reviews.
func CanMutateCatalog(a Actor) bool {
	return a.Admin
}

// CanAccessCart reports whether the actor owns the cart. Anonymous carts
// are never reachable through the API.
func CanAccessCart(a Actor, c *domain.Cart) bool {
	return c.UserID != "" && c.UserID == a.ID
}

// CanReadOrder: the owner, or any administrative actor.
func CanReadOrder(a Actor, o *domain.Order) bool {
	return a.Admin || o.CustomerID == a.ID
}

// CanMutateOrder covers status changes and deletion.
func CanMutateOrder(a Actor) bool {
	return a.Admin
}

func CanAccessAddress(a Actor, addr *domain.Address) bool {
	return addr.CustomerID == a.ID
}

func CanPublishArticle(a Actor) bool {
	return a.Admin
}
