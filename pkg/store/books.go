package store

import (
	"context"

	"libraryapp/pkg/models"
)

func (s *Store) CreateBook(ctx context.Context, book *models.Book) error {
	return translate("create book", s.conn(ctx).Create(book).Error)
}

func (s *Store) GetBook(ctx context.Context, bookUid string) (models.Book, error) {
	return first[models.Book](s.conn(ctx), "get book", "book_uid = ?", bookUid)
}

// LockBook loads the book and holds its row lock for the rest of the transaction.
func (s *Store) LockBook(ctx context.Context, bookUid string) (models.Book, error) {
	return first[models.Book](forUpdate(s.conn(ctx)), "lock book", "book_uid = ?", bookUid)
}

func (s *Store) FindBookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	return find[models.Book](s.conn(ctx), "find book by isbn", "isbn = ?", isbn)
}

func (s *Store) ListBooks(ctx context.Context, status models.BookStatus) ([]models.Book, error) {
	query := s.conn(ctx).Order("title ASC").Order("id ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var books []models.Book
	if err := query.Find(&books).Error; err != nil {
		return nil, translate("list books", err)
	}
	return books, nil
}

func (s *Store) SaveBook(ctx context.Context, book *models.Book) error {
	return translate("save book", s.conn(ctx).Save(book).Error)
}

func (s *Store) DeleteBook(ctx context.Context, bookUid string) error {
	res := s.conn(ctx).Where("book_uid = ?", bookUid).Delete(&models.Book{})
	if res.Error != nil {
		return translate("delete book", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
