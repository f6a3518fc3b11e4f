package db

import "context"

func (s *DB) MarkBackupCodeUsed(ctx context.Context, id, userID int64) (used bool, err error) {
	ctx, span := s.startSpan(ctx, "MarkBackupCodeUsed")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE backup_codes
		SET used_at = now()
		WHERE id = $1 AND user_id = $2 AND used_at IS NULL`,
		id, userID)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}
