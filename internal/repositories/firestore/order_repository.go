package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/platefeed/api/internal/domain"
	pfirestore "github.com/platefeed/api/internal/platform/firestore"
	"github.com/platefeed/api/internal/repositories"
)

const orderCollection = "orders"

// OrderRepository persists orders in a single top-level collection. Listing by
// user goes through an indexed query on the owner field.
type OrderRepository struct {
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{provider: provider}, nil
}

// Insert creates the order document, failing on id collision.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	if _, err := coll.Doc(id).Create(ctx, encodeOrderDocument(order)); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// FindByID fetches a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	snap, err := coll.Doc(id).Get(ctx)
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.find", err)
	}
	return decodeOrderDocument(snap)
}

// ListByUser returns the user's orders newest-first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("order repository: user id is required")
	}

	iter := coll.Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var orders []domain.Order
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("orders.list", err)
		}
		order, err := decodeOrderDocument(snap)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// UpdateStatus moves the order's status field inside a transaction guarded by
// the expected current status, so concurrent transitions from the same state
// cannot both commit. The rest of the record stays immutable after placement.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, updatedAt time.Time) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}

	ref := coll.Doc(id)
	return r.provider.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode order %s: %w", id, err)
		}
		if doc.Status != string(from) {
			return status.Errorf(codes.FailedPrecondition, "order %s is %s, expected %s", id, doc.Status, from)
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: string(to)},
			{Path: "updatedAt", Value: updatedAt.UTC()},
		})
	})
}

func (r *OrderRepository) collection(ctx context.Context) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("order repository not initialised")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(orderCollection), nil
}

type orderDocument struct {
	UserID        string              `firestore:"userId"`
	PartnerID     string              `firestore:"partnerId"`
	Lines         []orderLineDocument `firestore:"lines"`
	SubtotalCents int64               `firestore:"subtotalCents"`
	TotalCents    int64               `firestore:"totalCents"`
	Status        string              `firestore:"status"`
	CreatedAt     time.Time           `firestore:"createdAt"`
	UpdatedAt     time.Time           `firestore:"updatedAt"`
}

type orderLineDocument struct {
	FoodID             string `firestore:"foodId"`
	NameSnapshot       string `firestore:"nameSnapshot"`
	VideoSnapshot      string `firestore:"videoSnapshot,omitempty"`
	PriceCentsSnapshot int64  `firestore:"priceCentsSnapshot"`
	Quantity           int    `firestore:"quantity"`
}

func encodeOrderDocument(order domain.Order) orderDocument {
	lines := make([]orderLineDocument, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineDocument{
			FoodID:             line.FoodID,
			NameSnapshot:       line.NameSnapshot,
			VideoSnapshot:      line.VideoSnapshot,
			PriceCentsSnapshot: line.PriceCentsSnapshot,
			Quantity:           line.Quantity,
		})
	}
	return orderDocument{
		UserID:        order.UserID,
		PartnerID:     order.PartnerID,
		Lines:         lines,
		SubtotalCents: order.SubtotalCents,
		TotalCents:    order.TotalCents,
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt.UTC(),
		UpdatedAt:     order.UpdatedAt.UTC(),
	}
}

func decodeOrderDocument(snapshot *firestore.DocumentSnapshot) (domain.Order, error) {
	var doc orderDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.Order{}, fmt.Errorf("decode order %s: %w", snapshot.Ref.ID, err)
	}
	lines := make([]domain.OrderLine, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		lines = append(lines, domain.OrderLine{
			FoodID:             line.FoodID,
			NameSnapshot:       line.NameSnapshot,
			VideoSnapshot:      line.VideoSnapshot,
			PriceCentsSnapshot: line.PriceCentsSnapshot,
			Quantity:           line.Quantity,
		})
	}
	return domain.Order{
		ID:            snapshot.Ref.ID,
		UserID:        doc.UserID,
		PartnerID:     doc.PartnerID,
		Lines:         lines,
		SubtotalCents: doc.SubtotalCents,
		TotalCents:    doc.TotalCents,
		Status:        domain.OrderStatus(doc.Status),
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}, nil
}

// Ensure interface compliance.
var _ repositories.OrderRepository = (*OrderRepository)(nil)
