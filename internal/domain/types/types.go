package types

// RideStatus is the lifecycle state of a ride.
type RideStatus string

const (
	StatusRequested  RideStatus = "REQUESTED"
	StatusAccepted   RideStatus = "ACCEPTED"
	StatusArrived    RideStatus = "ARRIVED"
	StatusInProgress RideStatus = "IN_PROGRESS"
	StatusCompleted  RideStatus = "COMPLETED"
	StatusCancelled  RideStatus = "CANCELLED"
)

func (s RideStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status ends the ride's lifecycle.
func (s RideStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// DriverStatus is the availability state of a driver.
type DriverStatus string

const (
	StatusDriverOffline DriverStatus = "OFFLINE"
	StatusDriverOnline  DriverStatus = "ONLINE"
	StatusDriverBusy    DriverStatus = "BUSY"
)

// UserRole distinguishes the two sides of a ride.
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RoleCustomer UserRole = "CUSTOMER"
	RoleDriver   UserRole = "DRIVER"
)

// PaymentStatus is the settlement state of a ride payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// PaymentMethod is how a ride is paid for.
type PaymentMethod string

const (
	PaymentCash          PaymentMethod = "CASH"
	PaymentCreditCard    PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard     PaymentMethod = "DEBIT_CARD"
	PaymentDigitalWallet PaymentMethod = "DIGITAL_WALLET"
)

// NotificationKind categorizes stored notifications.
type NotificationKind string

const (
	NotifyRideRequest   NotificationKind = "RIDE_REQUEST"
	NotifyRideAccepted  NotificationKind = "RIDE_ACCEPTED"
	NotifyDriverArrived NotificationKind = "DRIVER_ARRIVED"
	NotifyTripStarted   NotificationKind = "TRIP_STARTED"
	NotifyTripCompleted NotificationKind = "TRIP_COMPLETED"
	NotifyRideCancelled NotificationKind = "RIDE_CANCELLED"
	NotifyGeneral       NotificationKind = "GENERAL"
)
