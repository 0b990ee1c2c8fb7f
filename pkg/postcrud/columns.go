package postcrud

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Column names of a host content item.
const (
	ColumnAuthor          = "post_author"
	ColumnDate            = "post_date"
	ColumnDateGMT         = "post_date_gmt"
	ColumnContent         = "post_content"
	ColumnTitle           = "post_title"
	ColumnExcerpt         = "post_excerpt"
	ColumnStatus          = "post_status"
	ColumnCommentStatus   = "comment_status"
	ColumnPingStatus      = "ping_status"
	ColumnPassword        = "post_password"
	ColumnName            = "post_name"
	ColumnToPing          = "to_ping"
	ColumnPinged          = "pinged"
	ColumnModified        = "post_modified"
	ColumnModifiedGMT     = "post_modified_gmt"
	ColumnContentFiltered = "post_content_filtered"
	ColumnParent          = "post_parent"
	ColumnGUID            = "guid"
	ColumnMenuOrder       = "menu_order"
	ColumnCommentCount    = "comment_count"
)

// HydratedColumns are the columns Read copies from the host into an Item.
var HydratedColumns = []string{
	ColumnAuthor,
	ColumnDate,
	ColumnDateGMT,
	ColumnContent,
	ColumnTitle,
	ColumnExcerpt,
	ColumnStatus,
	ColumnCommentStatus,
	ColumnPingStatus,
	ColumnPassword,
	ColumnName,
	ColumnToPing,
	ColumnPinged,
	ColumnModified,
	ColumnModifiedGMT,
	ColumnContentFiltered,
	ColumnParent,
	ColumnGUID,
	ColumnMenuOrder,
	ColumnCommentCount,
}

// Post statuses the bundled hosts assign themselves.
const (
	StatusDraft = "draft"
	StatusTrash = "trash"
)

// DefaultColumns returns the column values a host assigns to a freshly
// inserted item before applying the insert payload.
func DefaultColumns(now time.Time) Fields {
	local := now.Local()
	gmt := now.UTC()
	return Fields{
		ColumnAuthor:          Int(0),
		ColumnDate:            Time(local),
		ColumnDateGMT:         Time(gmt),
		ColumnContent:         String(""),
		ColumnTitle:           String(""),
		ColumnExcerpt:         String(""),
		ColumnStatus:          String(StatusDraft),
		ColumnCommentStatus:   String("open"),
		ColumnPingStatus:      String("open"),
		ColumnPassword:        String(""),
		ColumnName:            String(""),
		ColumnToPing:          String(""),
		ColumnPinged:          String(""),
		ColumnModified:        Time(local),
		ColumnModifiedGMT:     Time(gmt),
		ColumnContentFiltered: String(""),
		ColumnParent:          Int(0),
		ColumnGUID:            String(fmt.Sprintf("urn:uuid:%s", uuid.New())),
		ColumnMenuOrder:       Int(0),
		ColumnCommentCount:    Int(0),
	}
}

// Touch stamps the modification columns with now.
func Touch(f Fields, now time.Time) {
	f[ColumnModified] = Time(now.Local())
	f[ColumnModifiedGMT] = Time(now.UTC())
}
