package tracking

import (
	"encoding/json"
	"fmt"
	"time"

	"grocery-delivery/constants"
	"grocery-delivery/logger"
	"grocery-delivery/models/order"
	trackingTypes "grocery-delivery/types/tracking"

	"github.com/google/uuid"
)

// DefaultEvictGrace is how long a terminal order's cached state stays
// available for late catch-up fetches.
const DefaultEvictGrace = 30 * time.Second

// Relay receives client-originated tracking events and republishes derived
// events to the matching order room and the admin room. All failure modes
// except OTP mismatch degrade silently for the sender; the server log is the
// only signal.
type Relay struct {
	hub   *Hub
	cache *UpdateCache
	store OrderStore

	// Distance is pluggable so straight-line math can be replaced with a
	// routing service.
	Distance   DistanceFunc
	EvictGrace time.Duration
}

func NewRelay(hub *Hub, cache *UpdateCache, store OrderStore) *Relay {
	return &Relay{
		hub:        hub,
		cache:      cache,
		store:      store,
		Distance:   Haversine,
		EvictGrace: DefaultEvictGrace,
	}
}

// allowedSenders gates each client event on the principal kinds that may send it
var allowedSenders = map[string][]string{
	trackingTypes.EventJoinOrderTracking:     {constants.RoleCustomer, constants.RoleAdmin},
	trackingTypes.EventLeaveOrderTracking:    {constants.RoleCustomer, constants.RoleAdmin},
	trackingTypes.EventRequestDeliveryUpdate: {constants.RoleCustomer, constants.RoleAdmin},
	trackingTypes.EventDeliveryFeedback:      {constants.RoleCustomer},
	trackingTypes.EventVerifyDeliveryOTP:     {constants.RoleCustomer},
	trackingTypes.EventStatusUpdate:          {constants.RolePartner},
	trackingTypes.EventLocationUpdate:        {constants.RolePartner},
	trackingTypes.EventIssueReport:           {constants.RolePartner},
}

func senderAllowed(event, kind string) bool {
	for _, allowed := range allowedSenders[event] {
		if allowed == kind {
			return true
		}
	}
	return false
}

// Dispatch routes one inbound frame to its handler. Malformed or unauthorized
// frames are dropped with a log only.
func (r *Relay) Dispatch(s Session, raw []byte) {
	var msg trackingTypes.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Warning(fmt.Sprintf("Dropping malformed tracking frame from user %d: %v", s.Principal().UserID, err))
		return
	}

	if !senderAllowed(msg.Event, s.Principal().Kind) {
		logger.Warning(fmt.Sprintf("Dropping event %q from %s user %d: sender kind not allowed", msg.Event, s.Principal().Kind, s.Principal().UserID))
		return
	}

	switch msg.Event {
	case trackingTypes.EventJoinOrderTracking:
		r.handleJoin(s, msg.Data)
	case trackingTypes.EventLeaveOrderTracking:
		r.handleLeave(s, msg.Data)
	case trackingTypes.EventRequestDeliveryUpdate:
		r.handleRequestUpdate(s, msg.Data)
	case trackingTypes.EventDeliveryFeedback:
		r.handleFeedback(s, msg.Data)
	case trackingTypes.EventVerifyDeliveryOTP:
		r.handleVerifyOTP(s, msg.Data)
	case trackingTypes.EventStatusUpdate:
		r.handleStatusUpdate(s, msg.Data)
	case trackingTypes.EventLocationUpdate:
		r.handleLocationUpdate(s, msg.Data)
	case trackingTypes.EventIssueReport:
		r.handleIssueReport(s, msg.Data)
	default:
		logger.Warning(fmt.Sprintf("Dropping unknown tracking event %q from user %d", msg.Event, s.Principal().UserID))
	}
}

type validator interface {
	Validate() error
}

func decode(s Session, data json.RawMessage, req validator) bool {
	if err := json.Unmarshal(data, req); err != nil {
		logger.Warning(fmt.Sprintf("Dropping malformed payload from user %d: %v", s.Principal().UserID, err))
		return false
	}
	if err := req.Validate(); err != nil {
		logger.Warning(fmt.Sprintf("Dropping invalid payload from user %d: %v", s.Principal().UserID, err))
		return false
	}
	return true
}

// orderForCustomer resolves the order and enforces that customers only touch
// their own orders. Foreign order ids are dropped silently so they are not
// enumerable over the socket.
func (r *Relay) orderForCustomer(s Session, orderID uint) (*order.Order, bool) {
	o, err := r.store.OrderByID(orderID)
	if err != nil {
		logger.Warning(fmt.Sprintf("Order %d lookup failed for user %d: %v", orderID, s.Principal().UserID, err))
		return nil, false
	}
	if s.Principal().Kind == constants.RoleCustomer && o.CustomerID != s.Principal().UserID {
		logger.Warning(fmt.Sprintf("Customer %d touched foreign order %d, dropping", s.Principal().UserID, orderID))
		return nil, false
	}
	return o, true
}

// orderForPartner resolves the order and enforces that only the assigned
// partner may emit events for it.
func (r *Relay) orderForPartner(s Session, orderID uint) (*order.Order, bool) {
	o, err := r.store.OrderByID(orderID)
	if err != nil {
		logger.Warning(fmt.Sprintf("Order %d lookup failed for partner %d: %v", orderID, s.Principal().UserID, err))
		return nil, false
	}
	if o.PartnerID == nil || *o.PartnerID != s.Principal().UserID {
		logger.Warning(fmt.Sprintf("Partner %d sent event for order %d not assigned to them, dropping", s.Principal().UserID, orderID))
		return nil, false
	}
	return o, true
}

func (r *Relay) handleJoin(s Session, data json.RawMessage) {
	var req trackingTypes.OrderRoomRequest
	if !decode(s, data, &req) {
		return
	}
	if _, ok := r.orderForCustomer(s, req.OrderID); !ok {
		return
	}
	r.hub.Join(OrderRoom(req.OrderID), s)
}

func (r *Relay) handleLeave(s Session, data json.RawMessage) {
	var req trackingTypes.OrderRoomRequest
	if !decode(s, data, &req) {
		return
	}
	r.hub.Leave(OrderRoom(req.OrderID), s)
}

// handleRequestUpdate replays the cached snapshot to the requester only. On a
// cache miss the snapshot is rebuilt from the order store (read-through) so a
// reconnecting client always gets the current state.
func (r *Relay) handleRequestUpdate(s Session, data json.RawMessage) {
	var req trackingTypes.OrderRoomRequest
	if !decode(s, data, &req) {
		return
	}
	o, ok := r.orderForCustomer(s, req.OrderID)
	if !ok {
		return
	}

	update, ok := r.cache.Get(req.OrderID)
	if !ok {
		update = r.seedFromOrder(o)
	}
	Send(s, ServerEventDeliveryUpdate, update)
}

// Snapshot returns the live snapshot for the order, rebuilding it from the
// store on a cache miss. Shared by the socket catch-up path and the REST
// snapshot endpoint.
func (r *Relay) Snapshot(orderID uint) (DeliveryUpdate, error) {
	if update, ok := r.cache.Get(orderID); ok {
		return update, nil
	}
	o, err := r.store.OrderByID(orderID)
	if err != nil {
		return DeliveryUpdate{}, err
	}
	return r.seedFromOrder(o), nil
}

// seedFromOrder synthesizes a cache entry from durable order state, including
// issues already on record so a post-restart snapshot does not lose them
func (r *Relay) seedFromOrder(o *order.Order) DeliveryUpdate {
	patch := UpdatePatch{
		Status:      &o.Status,
		OTPVerified: &o.OTPVerified,
	}
	if o.PartnerID != nil {
		if summary, err := r.store.PartnerSummary(*o.PartnerID); err == nil {
			patch.Partner = summary
		}
	}
	if issues, err := r.store.IssuesByOrderID(o.ID); err != nil {
		logger.Warning(fmt.Sprintf("Failed to load issues for order %d: %v", o.ID, err))
	} else if len(issues) > 0 {
		entries := make([]IssueEntry, 0, len(issues))
		for _, is := range issues {
			entries = append(entries, IssueEntry{
				Type:        is.Type,
				Description: is.Description,
				TicketID:    is.TicketID,
				ReportedAt:  is.CreatedAt,
			})
		}
		patch.Issues = entries
	}
	update := r.cache.Merge(o.ID, patch)
	if o.Status.IsTerminal() {
		r.cache.ScheduleEviction(o.ID, r.EvictGrace)
	}
	return update
}

func (r *Relay) handleStatusUpdate(s Session, data json.RawMessage) {
	var req trackingTypes.StatusUpdateRequest
	if !decode(s, data, &req) {
		return
	}
	o, ok := r.orderForPartner(s, req.OrderID)
	if !ok {
		return
	}

	next := order.DeliveryStatus(req.Status)
	if !o.Status.CanTransitionTo(next) {
		logger.Warning(fmt.Sprintf("Rejecting status transition %s -> %s for order %d", o.Status, next, o.ID))
		return
	}

	if err := r.store.UpdateOrderStatus(o.ID, next); err != nil {
		logger.Error(fmt.Sprintf("Failed to persist status %s for order %d", next, o.ID), err)
		return
	}

	var lat, lng *float64
	patch := UpdatePatch{Status: &next}
	if req.Location != nil {
		lat, lng = &req.Location.Latitude, &req.Location.Longitude
		patch.Location = &GeoState{Latitude: req.Location.Latitude, Longitude: req.Location.Longitude}
	}
	if err := r.store.AppendStatusEvent(o, next, req.Notes, lat, lng, s.Principal().UUID); err != nil {
		logger.Error(fmt.Sprintf("Failed to append timeline event for order %d", o.ID), err)
	}

	update := r.cache.Merge(o.ID, patch)
	if next.IsTerminal() {
		r.cache.ScheduleEviction(o.ID, r.EvictGrace)
	}

	payload := StatusBroadcast{
		OrderID:   o.ID,
		Status:    next,
		Notes:     req.Notes,
		Location:  update.CurrentLocation,
		Partner:   update.Partner,
		Timestamp: update.LastUpdate,
	}
	event := statusEventName(next)
	r.hub.Broadcast(OrderRoom(o.ID), event, payload)
	r.hub.Broadcast(RoomAdminLive, event, payload)
}

func (r *Relay) handleLocationUpdate(s Session, data json.RawMessage) {
	var req trackingTypes.LocationUpdateRequest
	if !decode(s, data, &req) {
		return
	}
	o, ok := r.orderForPartner(s, req.OrderID)
	if !ok {
		return
	}

	loc := GeoState{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Speed:     req.Speed,
		Heading:   req.Heading,
		Accuracy:  req.Accuracy,
	}
	distance := r.Distance(
		Coordinates{Latitude: req.Latitude, Longitude: req.Longitude},
		Coordinates{Latitude: o.DeliveryLatitude, Longitude: o.DeliveryLongitude},
	)
	eta := EstimateArrival(distance, req.Speed, time.Now())

	update := r.cache.Merge(o.ID, UpdatePatch{
		Location:         &loc,
		DistanceKM:       &distance,
		EstimatedArrival: &eta,
	})

	payload := LocationBroadcast{
		OrderID:          o.ID,
		Location:         loc,
		DistanceKM:       distance,
		EstimatedArrival: update.EstimatedArrival,
		Timestamp:        update.LastUpdate,
	}
	r.hub.Broadcast(OrderRoom(o.ID), ServerEventLocationUpdate, payload)

	adminPayload := payload
	adminPayload.PartnerID = s.Principal().UserID
	r.hub.Broadcast(RoomAdminLive, ServerEventLocationUpdate, adminPayload)
}

func (r *Relay) handleIssueReport(s Session, data json.RawMessage) {
	var req trackingTypes.IssueReportRequest
	if !decode(s, data, &req) {
		return
	}
	o, ok := r.orderForPartner(s, req.OrderID)
	if !ok {
		return
	}

	issue := &order.DeliveryIssue{
		OrderID:     o.ID,
		Type:        req.Type,
		Description: req.Description,
		TicketID:    uuid.NewString(),
	}
	if err := r.store.SaveIssue(issue); err != nil {
		logger.Error(fmt.Sprintf("Failed to persist issue for order %d", o.ID), err)
		return
	}

	entry := IssueEntry{
		Type:        req.Type,
		Description: req.Description,
		TicketID:    issue.TicketID,
		ReportedAt:  time.Now(),
	}
	update := r.cache.Merge(o.ID, UpdatePatch{Issue: &entry})

	payload := IssueBroadcast{
		OrderID:     o.ID,
		Type:        req.Type,
		Description: req.Description,
		TicketID:    issue.TicketID,
		Timestamp:   update.LastUpdate,
	}
	r.hub.Broadcast(OrderRoom(o.ID), ServerEventIssueReported, payload)
	r.hub.Broadcast(RoomAdminLive, ServerEventIssueReported, payload)
}

// handleVerifyOTP compares the submitted code against the order's stored OTP.
// A mismatch answers the submitting connection only; there is no lockout on
// this path, failed attempts are just logged.
func (r *Relay) handleVerifyOTP(s Session, data json.RawMessage) {
	var req trackingTypes.VerifyDeliveryOTPRequest
	if !decode(s, data, &req) {
		return
	}
	o, ok := r.orderForCustomer(s, req.OrderID)
	if !ok {
		return
	}

	if o.DeliveryOTP == "" || o.DeliveryOTP != req.OTP {
		logger.Warning(fmt.Sprintf("OTP mismatch for order %d from customer %d", o.ID, s.Principal().UserID))
		Send(s, ServerEventOTPRejected, OTPRejection{
			OrderID: o.ID,
			Message: "Invalid delivery OTP",
		})
		return
	}

	// Idempotent: a repeat correct submission re-broadcasts without extra
	// side effects.
	if !o.OTPVerified {
		if err := r.store.MarkOTPVerified(o.ID); err != nil {
			logger.Error(fmt.Sprintf("Failed to persist OTP verification for order %d", o.ID), err)
			return
		}
	}
	r.AnnounceOTPVerified(o.ID)
}

// AnnounceOTPVerified mirrors a successful verification into the cache and
// broadcasts it to both rooms. Also used by the HTTP fallback path so socket
// subscribers see verifications made over REST.
func (r *Relay) AnnounceOTPVerified(orderID uint) {
	verified := true
	update := r.cache.Merge(orderID, UpdatePatch{OTPVerified: &verified})

	payload := OTPVerifiedBroadcast{OrderID: orderID, Timestamp: update.LastUpdate}
	r.hub.Broadcast(OrderRoom(orderID), ServerEventOTPVerified, payload)
	r.hub.Broadcast(RoomAdminLive, ServerEventOTPVerified, payload)
}

func (r *Relay) handleFeedback(s Session, data json.RawMessage) {
	var req trackingTypes.DeliveryFeedbackRequest
	if !decode(s, data, &req) {
		return
	}
	o, ok := r.orderForCustomer(s, req.OrderID)
	if !ok {
		return
	}

	fb := &order.DeliveryFeedback{
		OrderID:    o.ID,
		CustomerID: s.Principal().UserID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := r.store.SaveFeedback(fb); err != nil {
		logger.Error(fmt.Sprintf("Failed to persist feedback for order %d", o.ID), err)
	}
}

// OrderAssigned seeds the cache and announces a fresh assignment. Called by
// the admin assignment endpoint rather than the socket path.
func (r *Relay) OrderAssigned(o *order.Order) {
	status := order.StatusAssigned
	patch := UpdatePatch{Status: &status}
	if o.PartnerID != nil {
		if summary, err := r.store.PartnerSummary(*o.PartnerID); err == nil {
			patch.Partner = summary
		}
	}
	update := r.cache.Merge(o.ID, patch)

	payload := StatusBroadcast{
		OrderID:   o.ID,
		Status:    status,
		Partner:   update.Partner,
		Timestamp: update.LastUpdate,
	}
	r.hub.Broadcast(OrderRoom(o.ID), ServerEventOrderAssigned, payload)
	r.hub.Broadcast(RoomAdminLive, ServerEventOrderAssigned, payload)
}
