// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize is the order page size used when none is given.
const DefaultPageSize = 25

// Login exchanges credentials for a session token and stores it on the
// client.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return nil, errors.New("email and password are required")
	}

	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &res, false); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, errors.New("login response carried no token")
	}
	c.SetToken(res.Token)
	return &res, nil
}

// Logout revokes the session token on the server and forgets it locally.
// The local token is cleared even when the server call fails; a token the
// server already considers invalid counts as logged out.
func (c *Client) Logout(ctx context.Context) error {
	if c.Token() == "" {
		return nil
	}
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, true)
	c.SetToken("")
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	return err
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/me", nil, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListOrders returns one page of the order history, newest first. Pass the
// previous page's NextCursor to continue.
func (c *Client) ListOrders(ctx context.Context, limit int, cursor string) (*OrderPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	var page OrderPage
	if err := c.do(ctx, http.MethodGet, "/orders?"+q.Encode(), nil, &page, true); err != nil {
		return nil, err
	}
	return &page, nil
}

// AllOrders follows cursors until the history is exhausted or max orders
// have been collected (max <= 0 means no cap).
func (c *Client) AllOrders(ctx context.Context, max int) ([]Order, error) {
	var (
		orders []Order
		cursor string
	)
	for {
		page, err := c.ListOrders(ctx, DefaultPageSize, cursor)
		if err != nil {
			return nil, err
		}
		orders = append(orders, page.Orders...)
		if max > 0 && len(orders) >= max {
			return orders[:max], nil
		}
		if page.NextCursor == "" || len(page.Orders) == 0 {
			return orders, nil
		}
		cursor = page.NextCursor
	}
}

// GetOrder returns a single order.
func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty order id", ErrNotFound)
	}

	var o Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &o, true); err != nil {
		return nil, err
	}
	return &o, nil
}
