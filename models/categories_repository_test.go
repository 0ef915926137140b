package models

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

var (
	countCategoryName     = regexp.QuoteMeta(`SELECT count(*) FROM "categories" WHERE name = $1`)
	insertCategory        = regexp.QuoteMeta(`INSERT INTO "categories" ("name") VALUES ($1) RETURNING "id"`)
	countCategoryProducts = regexp.QuoteMeta(`SELECT count(*) FROM "products" WHERE category_id = $1`)
	deleteCategory        = regexp.QuoteMeta(`DELETE FROM "categories" WHERE "categories"."id" = $1`)
)

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestCreateCategory(t *testing.T) {
	testCases := []struct {
		name        string
		setup       func(mock sqlmock.Sqlmock)
		expectedID  uint
		expectedErr error
	}{
		{
			name: "Free name is inserted",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(countCategoryName).WithArgs("Cabos").WillReturnRows(countRows(0))
				mock.ExpectBegin()
				mock.ExpectQuery(insertCategory).WithArgs("Cabos").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
				mock.ExpectCommit()
			},
			expectedID: 7,
		},
		{
			name: "Taken name is rejected before inserting",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(countCategoryName).WithArgs("Cabos").WillReturnRows(countRows(1))
			},
			expectedErr: ErrDuplicateCategory,
		},
		{
			name: "Unique violation on insert is a duplicate",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(countCategoryName).WithArgs("Cabos").WillReturnRows(countRows(0))
				mock.ExpectBegin()
				mock.ExpectQuery(insertCategory).WithArgs("Cabos").
					WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})
				mock.ExpectRollback()
			},
			expectedErr: ErrDuplicateCategory,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tc.setup(mock)

			category := &Category{Name: "Cabos"}
			err := NewCategoriesRepository(db).CreateCategory(category)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedID, category.ID)
		})
	}
}

func TestDeleteCategory(t *testing.T) {
	testCases := []struct {
		name        string
		setup       func(mock sqlmock.Sqlmock)
		expectedErr error
	}{
		{
			name: "Empty category is deleted",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(countCategoryProducts).WithArgs(3).WillReturnRows(countRows(0))
				mock.ExpectExec(deleteCategory).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			// No DELETE is expected: sqlmock fails on any statement not listed.
			name: "Category with products is kept",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(countCategoryProducts).WithArgs(3).WillReturnRows(countRows(4))
				mock.ExpectRollback()
			},
			expectedErr: ErrCategoryNotEmpty,
		},
		{
			name: "Foreign key violation means products appeared meanwhile",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(countCategoryProducts).WithArgs(3).WillReturnRows(countRows(0))
				mock.ExpectExec(deleteCategory).WithArgs(3).
					WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})
				mock.ExpectRollback()
			},
			expectedErr: ErrCategoryNotEmpty,
		},
		{
			name: "Unknown category",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(countCategoryProducts).WithArgs(3).WillReturnRows(countRows(0))
				mock.ExpectExec(deleteCategory).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			expectedErr: ErrCategoryNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tc.setup(mock)

			err := NewCategoriesRepository(db).DeleteCategory(3)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConstraintClassification(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, isForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isForeignKeyViolation(errors.New("connection reset")))
}
