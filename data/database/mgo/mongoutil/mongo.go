// Package mongoutil dials the chat database from the mongo section of the
// app config.
package mongoutil

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"PTalk/tools/errs"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMaxPoolSize = 100

// Mongo server codes that no amount of retrying fixes.
var fatalCodes = map[int32]bool{
	13: true, // Unauthorized
	18: true, // AuthenticationFailed
}

type Config struct {
	Uri         string
	Address     []string
	Database    string
	Username    string
	Password    string
	AuthSource  string // defaults to Database
	MaxPoolSize int
}

// Validate checks the config, fills defaults and derives Uri from Address
// when no Uri is given.
func (c *Config) Validate() error {
	if c.Database == "" {
		return errs.ErrValidation.WrapMsg("mongo database is required")
	}
	if c.Uri == "" && len(c.Address) == 0 {
		return errs.ErrValidation.WrapMsg("mongo uri or address is required")
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = defaultMaxPoolSize
	}
	if c.AuthSource == "" {
		c.AuthSource = c.Database
	}
	if c.Uri == "" {
		c.Uri = c.uri()
	}
	return nil
}

func (c *Config) uri() string {
	u := url.URL{
		Scheme: "mongodb",
		Host:   strings.Join(c.Address, ","),
		Path:   "/" + c.Database,
	}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	q := url.Values{}
	q.Set("authSource", c.AuthSource)
	q.Set("maxPoolSize", strconv.Itoa(c.MaxPoolSize))
	u.RawQuery = q.Encode()
	return u.String()
}

// Dial connects and pings once. Callers own retrying; see Retryable.
func Dial(ctx context.Context, c *Config) (*mongo.Database, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	opts := options.Client().ApplyURI(c.Uri).SetMaxPoolSize(uint64(c.MaxPoolSize))
	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errs.ErrPersistence.WrapCause(err, "mongo connect", "database", c.Database)
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, errs.ErrPersistence.WrapCause(err, "mongo ping", "database", c.Database)
	}
	return cli.Database(c.Database), nil
}

// Retryable reports whether a Dial failure may clear up on its own.
// Rejected credentials and bad config never do.
func Retryable(err error) bool {
	if err == nil || errs.Is(err, errs.ErrValidation) {
		return false
	}
	var cmd mongo.CommandError
	if errors.As(err, &cmd) {
		return !fatalCodes[cmd.Code]
	}
	return true
}
