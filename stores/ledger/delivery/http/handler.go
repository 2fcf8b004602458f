package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/delivery"
	"github.com/x-xyz/goledger/domain/item"
)

type handler struct {
	ledger item.Usecase
}

func New(e *echo.Echo, ledger item.Usecase) {
	h := &handler{ledger}

	e.POST("/items", h.createItem)
	e.GET("/owners/:owner/items", h.itemsByOwner)
	e.POST("/admin/reconcile", h.reconcile)

	g := e.Group("/items/:id")
	g.GET("", h.getItem)
	g.POST("/listing", h.listFixedPrice)
	g.DELETE("/listing", h.delist)
	g.POST("/auction", h.startAuction)
	g.DELETE("/auction", h.cancelAuction)
	g.POST("/bids", h.placeBid)
	g.POST("/settle", h.settleAuction)
	g.POST("/buy", h.buyFixedPrice)
	g.POST("/transfer", h.transferOwnership)
}

// bindAndValidate fills p from path, query and body and runs the struct validator
func bindAndValidate(c echo.Context, p interface{}) error {
	if err := c.Bind(p); err != nil {
		return err
	}
	return c.Validate(p)
}

// createItem
//
//	@Summary		Mint a new item
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			params	body		http.createItem.params	true	"params"
//	@Success		201		{object}	item.Item
//	@Failure		400
//	@Failure		503
//	@Router			/items [post]
func (h *handler) createItem(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Creator      string `json:"creator" validate:"required,userid"`
		InitialOwner string `json:"initialOwner" validate:"omitempty,userid"`
		MetadataRef  string `json:"metadataRef" validate:"max=2048"`
	}

	p := params{}
	if err := bindAndValidate(c, &p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.ledger.CreateItem(ctx, item.CreateParams{
		Creator:      p.Creator,
		InitialOwner: p.InitialOwner,
		MetadataRef:  p.MetadataRef,
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusCreated, res)
}

// getItem
//
//	@Summary		Get an item
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"item id"
//	@Success		200	{object}	item.Item
//	@Failure		404
//	@Failure		503
//	@Router			/items/{id} [get]
func (h *handler) getItem(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	res, err := h.ledger.GetItem(ctx, c.Param("id"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// itemsByOwner
//
//	@Summary		List the items of an owner
//	@Tags			items
//	@Produce		json
//	@Param			owner	path		string	true	"owner id"
//	@Success		200		{object}	[]item.Item
//	@Failure		400
//	@Router			/owners/{owner}/items [get]
func (h *handler) itemsByOwner(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Owner string `param:"owner" validate:"required,userid"`
	}

	p := params{}
	if err := bindAndValidate(c, &p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.ledger.ItemsByOwner(ctx, p.Owner)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// listFixedPrice
//
//	@Summary		List an item at a fixed price, or update the price of a listed one
//	@Tags			listings
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"item id"
//	@Param			params	body		http.listFixedPrice.params	true	"params"
//	@Success		200		{object}	item.Item
//	@Failure		400
//	@Failure		403
//	@Failure		409
//	@Router			/items/{id}/listing [post]
func (h *handler) listFixedPrice(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id        string `param:"id"`
		Price     string `json:"price" validate:"required,price"`
		Requester string `json:"requester" validate:"required,userid"`
	}

	p := params{}
	if err := bindAndValidate(c, &p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	price, err := item.ParsePrice(p.Price)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.ledger.ListFixedPrice(ctx, p.Id, price, p.Requester)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// delist
//
//	@Summary		Withdraw a fixed price listing
//	@Tags			listings
//	@Produce		json
//	@Param			id			path		string	true	"item id"
//	@Param			requester	query		string	true	"owner id"
//	@Success		200			{object}	item.Item
//	@Failure		400
//	@Failure		403
//	@Failure		409
//	@Router			/items/{id}/listing [delete]
func (h *handler) delist(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id        string `param:"id"`
		Requester string `query:"requester" json:"requester" validate:"required,userid"`
	}

	p := params{}
	if err := bindAndValidate(c, &p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.ledger.Delist(ctx, p.Id, p.Requester)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// startAuction
//
//	@Summary		Put an item on auction
//	@Tags			auctions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"item id"
//	@Param			params	body		http.startAuction.params	true	"params"
//	@Success		200		{object}	item.Item
//	@Failure		400
//	@Failure		403
//	@Failure		409
//	@Router			/items/{id}/auction [post]
func (h *handler) startAuction(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id              string `param:"id"`
		StartingPrice   string `json:"startingPrice" validate:"required,price"`
		DurationSeconds int64  `json:"durationSeconds"`
		Requester       string `json:"requester" validate:"required,userid"`
	}

	p := params{}
	if err := bindAndValidate(c, &p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	price, err := item.ParsePrice(p.StartingPrice)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.ledger.StartAuction(ctx, p.Id, price, time.Duration(p.DurationSeconds)*time.Second, p.Requester)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// cancelAuction
//
//	@Summary		Cancel an auction that has no bids
//	@Tags			auctions
//	@Produce		json
//	@Param			id			path		string	true	"item id"
//	@Param			requester	query		string	true	"owner id"
//	@Success		200			{object}	item.Item
//	@Failure		400
//	@Failure		403
//	@Failure		409
//	@Router			/items/{id}/auction [delete]
func (h *handler) cancelAuction(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id        string `param:"id"`
		Requester string `query:"requester" json:"requester" validate:"required,userid"`
	}

	p := params{}
	if err := bindAndValidate(c, &p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.ledger.CancelAuction(ctx, p.Id, p.Requester)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// placeBid
//
//	@Summary		Bid on an auction
//	@Description	A rejected bid carries the amount the next bid has to exceed in minimumAcceptable
//	@Tags			auctions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"item id"
//	@Param			params	body		http.placeBid.params	true	"params"
//	@Success		200		{object}	item.Item
//	@Failure		400		{object}	delivery.BidTooLowBody
//	@Failure		409
//	@Router			/items/{id}/bids [post]
func (h *handler) placeBid(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id     string `param:"id"`
		Bidder string `json:"bidder" validate:"required,userid"`
		Amount string `json:"amount" validate:"required,numeric"`
	}

	p := params{}
	if err := bindAndValidate(c, &p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	amount, err := item.ParsePrice(p.Amount)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.ledger.PlaceBid(ctx, p.Id, p.Bidder, amount)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// settleAuction
//
//	@Summary		Close an expired auction
//	@Tags			auctions
//	@Produce		json
//	@Param			id	path		string	true	"item id"
//	@Success		200	{object}	item.Item
//	@Failure		400
//	@Failure		404
//	@Router			/items/{id}/settle [post]
func (h *handler) settleAuction(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	res, err := h.ledger.SettleAuction(ctx, c.Param("id"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// buyFixedPrice
//
//	@Summary		Buy a fixed price item
//	@Tags			listings
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"item id"
//	@Param			params	body		http.buyFixedPrice.params	true	"params"
//	@Success		200		{object}	item.Item
//	@Failure		400
//	@Failure		409
//	@Router			/items/{id}/buy [post]
func (h *handler) buyFixedPrice(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id    string `param:"id"`
		Buyer string `json:"buyer" validate:"required,userid"`
	}

	p := params{}
	if err := bindAndValidate(c, &p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.ledger.BuyFixedPrice(ctx, p.Id, p.Buyer)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// transferOwnership
//
//	@Summary		Hand an unlisted item to another user
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"item id"
//	@Param			params	body		http.transferOwnership.params	true	"params"
//	@Success		200		{object}	item.Item
//	@Failure		400
//	@Failure		403
//	@Failure		409
//	@Router			/items/{id}/transfer [post]
func (h *handler) transferOwnership(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id   string `param:"id"`
		From string `json:"from" validate:"required,userid"`
		To   string `json:"to" validate:"required,userid"`
	}

	p := params{}
	if err := bindAndValidate(c, &p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.ledger.TransferOwnership(ctx, p.Id, p.From, p.To)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// reconcile
//
//	@Summary		Push pending mirror writes to the durable store
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	item.ReconcileSummary
//	@Failure		503
//	@Router			/admin/reconcile [post]
func (h *handler) reconcile(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	res, err := h.ledger.Reconcile(ctx)
	if err != nil {
		ctx.WithField("err", err).Warn("ledger.Reconcile stopped early")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}
