package api

import (
	"net/http"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/api/openapi"
)

// restOperations documents the routes served by Handler.Routes.
func restOperations() []openapi.Operation {
	const (
		students = "Students"
		books    = "Books"
		files    = "Files"
	)
	page := []string{"limit", "offset"}

	return []openapi.Operation{
		// Students
		{Method: "POST", Path: "/students", ID: "createStudent", Summary: "Create a student", Tag: students,
			Body: domain.Student{}, Status: http.StatusCreated, Response: CreatedResponse{},
			Errors: []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge}},
		{Method: "GET", Path: "/students", ID: "listStudents", Summary: "List students", Tag: students,
			QueryParams: page, Response: []domain.Student{}},
		{Method: "GET", Path: "/students/{id}", ID: "getStudent", Summary: "Get a student", Tag: students,
			Response: domain.Student{}, Errors: []int{http.StatusNotFound}},
		{Method: "PUT", Path: "/students/{id}", ID: "updateStudent", Summary: "Update a student", Tag: students,
			Body: domain.Student{}, Response: domain.Student{},
			Errors: []int{http.StatusBadRequest, http.StatusNotFound}},
		{Method: "DELETE", Path: "/students/{id}", ID: "deleteStudent", Summary: "Delete a student", Tag: students,
			Status: http.StatusNoContent, Errors: []int{http.StatusNotFound}},
		{Method: "POST", Path: "/students/register", ID: "registerStudent", Summary: "Send the registration email", Tag: students,
			Body: domain.Registration{}, Response: StatusResponse{},
			Errors: []int{http.StatusBadRequest, http.StatusBadGateway}},

		// Books
		{Method: "POST", Path: "/books", ID: "createBook", Summary: "Create a book", Tag: books,
			Body: domain.Book{}, Status: http.StatusCreated, Response: CreatedResponse{},
			Errors: []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge}},
		{Method: "GET", Path: "/books", ID: "listBooks", Summary: "List books", Tag: books,
			QueryParams: append([]string{"title", "category"}, page...), Response: []domain.Book{}},
		{Method: "GET", Path: "/books/{id}", ID: "getBook", Summary: "Get a book", Tag: books,
			Response: domain.Book{}, Errors: []int{http.StatusNotFound}},
		{Method: "PUT", Path: "/books/{id}", ID: "updateBook", Summary: "Update a book", Tag: books,
			Body: domain.Book{}, Response: domain.Book{},
			Errors: []int{http.StatusBadRequest, http.StatusNotFound}},
		{Method: "DELETE", Path: "/books/{id}", ID: "deleteBook", Summary: "Delete a book", Tag: books,
			Status: http.StatusNoContent, Errors: []int{http.StatusNotFound}},
		{Method: "PUT", Path: "/books/{id}/cover", ID: "uploadBookCover", Summary: "Upload a book cover", Tag: books,
			FileField: "cover", Response: domain.Book{},
			Errors: []int{http.StatusBadRequest, http.StatusNotFound, http.StatusBadGateway, http.StatusServiceUnavailable}},

		// Files
		{Method: "POST", Path: "/files/{studentID}/uploadSingle", ID: "uploadSingle", Summary: "Upload a student's profile picture", Tag: files,
			FileField: pictureField, Response: UploadResponse{},
			Errors: []int{http.StatusBadRequest, http.StatusNotFound, http.StatusRequestEntityTooLarge}},
		{Method: "POST", Path: "/files/uploadMultiple", ID: "uploadMultiple", Summary: "Upload several pictures", Tag: files,
			FileField: pictureField, MultipleFile: true, Response: UploadsResponse{},
			Errors: []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge}},
		{Method: "POST", Path: "/files/uploadCloudinary", ID: "uploadCloudinary", Summary: "Upload a picture to Cloudinary", Tag: files,
			FileField: pictureField, Response: UploadResponse{},
			Errors: []int{http.StatusBadRequest, http.StatusBadGateway, http.StatusServiceUnavailable}},
		{Method: "GET", Path: "/files/downloadJSON", ID: "downloadJSON", Summary: "Download the books as gzipped JSON", Tag: files,
			Produces: contentTypeGzip},
		{Method: "GET", Path: "/files/downloadPDF", ID: "downloadPDF", Summary: "Download a greeting PDF", Tag: files,
			QueryParams: []string{"firstName"}, Produces: "application/pdf"},
		{Method: "GET", Path: "/files/downloadCSV", ID: "downloadCSV", Summary: "Download the books as CSV", Tag: files,
			Produces: "text/csv"},
		{Method: "GET", Path: "/files/PDFAsync", ID: "pdfAsync", Summary: "Write the catalogue PDF on the server", Tag: files,
			QueryParams: []string{"email"}, Response: PathResponse{},
			Errors: []int{http.StatusBadRequest, http.StatusBadGateway}},
	}
}
